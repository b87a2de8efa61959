package content

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
	contentService "github.com/zhouzirui/chytanka/backend/internal/service/content"
	"github.com/zhouzirui/chytanka/backend/pkg/utils"
)

// Handler exposes the content service to browser clients.
type Handler struct {
	service      *contentService.Service
	maxBodyBytes int64
}

// New creates the handler. Request bodies above maxBodyBytes are rejected.
func New(service *contentService.Service, maxBodyBytes int64) *Handler {
	return &Handler{service: service, maxBodyBytes: maxBodyBytes}
}

// RegisterRoutes mounts the proxy routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Post("/word", h.handleWord)
	r.Post("/image", h.handleImage)
	r.Post("/tts", h.handleSpeech)
	r.Post("/pronunciation", h.handlePronunciation)
}

type wordRequest struct {
	ExcludedWords []string `json:"excludedWords"`
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

type imageResponse struct {
	ImageData string `json:"imageData"`
}

type speechRequest struct {
	Text string `json:"text"`
}

type speechResponse struct {
	Audio  string `json:"audio"`
	Format string `json:"format"`
}

type pronunciationRequest struct {
	TargetWord  string `json:"targetWord"`
	AudioBase64 string `json:"audioBase64"`
	MIMEType    string `json:"mimeType"`
}

type pronunciationResponse struct {
	Correct bool `json:"correct"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWord never fails on generator errors; a fallback word is served.
func (h *Handler) handleWord(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if !h.decode(w, r, &req) {
		return
	}

	next, fallback := h.service.NextWord(r.Context(), req.ExcludedWords)
	if fallback {
		w.Header().Set("X-Word-Source", "fallback")
	}
	if next == (word.Wire{}) {
		utils.RespondError(w, http.StatusServiceUnavailable, "no words available")
		return
	}
	utils.RespondJSON(w, http.StatusOK, next)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !h.decode(w, r, &req) {
		return
	}

	img, err := h.service.Image(r.Context(), req.Prompt)
	if err != nil {
		h.respondServiceError(w, "image", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, imageResponse{ImageData: img.DataURL()})
}

func (h *Handler) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if !h.decode(w, r, &req) {
		return
	}

	audio, err := h.service.Speech(r.Context(), req.Text)
	if err != nil {
		h.respondServiceError(w, "tts", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, speechResponse{
		Audio:  base64.StdEncoding.EncodeToString(audio.Data),
		Format: audio.Format,
	})
}

func (h *Handler) handlePronunciation(w http.ResponseWriter, r *http.Request) {
	var req pronunciationRequest
	if !h.decode(w, r, &req) {
		return
	}

	audio, err := decodeAudio(req.AudioBase64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audioBase64 is not valid base64")
		return
	}

	correct, err := h.service.Judge(r.Context(), req.TargetWord, audio, req.MIMEType)
	if err != nil {
		h.respondServiceError(w, "pronunciation", err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, pronunciationResponse{Correct: correct})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(w, r, h.maxBodyBytes, dst); err != nil {
		if errors.Is(err, utils.ErrBodyTooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return false
		}
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, contentService.ErrEmptyInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contentService.ErrUnsupportedAudio):
		utils.RespondError(w, http.StatusUnsupportedMediaType, err.Error())
	default:
		log.Printf("[proxy] %s failed: %v", op, err)
		utils.RespondError(w, http.StatusBadGateway, op+" request failed")
	}
}

// decodeAudio accepts plain base64 or a data URL.
func decodeAudio(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	return base64.StdEncoding.DecodeString(encoded)
}
