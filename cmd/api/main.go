package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/chytanka/backend/internal/config"
	"github.com/zhouzirui/chytanka/backend/internal/handler"
	"github.com/zhouzirui/chytanka/backend/internal/model/word"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize providers: %v", err)
	}

	pool, err := loadWordPool(cfg.Proxy.FallbackWordsFile)
	if err != nil {
		log.Fatalf("failed to load fallback words: %v", err)
	}

	contentSvc := content.NewService(providers, pool, content.Options{
		SpeechCacheSize: cfg.Proxy.SpeechCacheSize,
		SpeechCacheTTL:  cfg.Proxy.SpeechCacheTTL,
	})

	router := handler.NewRouter(cfg.Proxy, contentSvc)
	startServer(ctx, cfg.Server, router)
}

func loadWordPool(path string) (*word.MemoryPool, error) {
	if path == "" {
		return word.NewMemoryPool(word.Seed()), nil
	}
	items, err := word.LoadPoolFile(path)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d fallback words from %s", len(items), path)
	return word.NewMemoryPool(items), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Chytanka proxy listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
