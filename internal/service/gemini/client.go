// Package gemini implements the content capabilities on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Config selects models and voice.
type Config struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	SpeechModel string
	Voice       string
}

// Generator is the subset of the genai models API the provider uses.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider answers word, image, speech and pronunciation requests with Gemini models.
type Provider struct {
	cfg    Config
	models Generator
}

// ErrEmptyResponse is returned when a model answered without usable content.
var ErrEmptyResponse = errors.New("gemini returned an empty response")

// New connects to the Gemini API.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewWithGenerator(cfg, client.Models), nil
}

// NewWithGenerator builds a Provider on an existing models API.
func NewWithGenerator(cfg Config, models Generator) *Provider {
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-2.5-flash"
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = "gemini-2.5-flash-image"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.Voice == "" {
		cfg.Voice = "Kore"
	}
	return &Provider{cfg: cfg, models: models}
}

// firstInlineData returns the first inline blob of the first candidate.
func firstInlineData(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil
	}
	for _, part := range content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}
