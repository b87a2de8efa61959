package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/chytanka/backend/internal/config"
	"github.com/zhouzirui/chytanka/backend/internal/handler/content"
	"github.com/zhouzirui/chytanka/backend/internal/metrics"
	middlewarePkg "github.com/zhouzirui/chytanka/backend/internal/middleware"
	contentService "github.com/zhouzirui/chytanka/backend/internal/service/content"
)

// NewRouter wires HTTP routes to the content service.
func NewRouter(cfg config.ProxyConfig, svc *contentService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(cfg.AllowedOrigins))

	r.Handle("/metrics", metrics.Handler())

	limiter := middlewarePkg.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	contentHandler := content.New(svc, cfg.MaxBodyBytes)

	r.Route("/api", func(api chi.Router) {
		api.Use(limiter.Middleware)
		contentHandler.RegisterRoutes(api)
	})

	return r
}
