package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
)

var wordSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"cleanWord":   {Type: genai.TypeString},
		"syllables":   {Type: genai.TypeString},
		"imagePrompt": {Type: genai.TypeString},
	},
	Required: []string{"cleanWord", "syllables", "imagePrompt"},
}

var verdictSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"correct": {Type: genai.TypeBoolean},
	},
}

// GenerateWord asks the text model for a new phrase.
func (p *Provider) GenerateWord(ctx context.Context, excluded []string) (word.Wire, error) {
	resp, err := p.models.GenerateContent(ctx, p.cfg.TextModel, genai.Text(content.WordPrompt(excluded)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   wordSchema,
	})
	if err != nil {
		return word.Wire{}, fmt.Errorf("gemini word generation: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return word.Wire{}, ErrEmptyResponse
	}

	var w word.Wire
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return word.Wire{}, fmt.Errorf("decode word response: %w", err)
	}
	return w, nil
}

// GenerateImage draws the illustration.
func (p *Provider) GenerateImage(ctx context.Context, prompt string) (content.Image, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(content.ImagePrompt(prompt))}, genai.RoleUser),
	}

	resp, err := p.models.GenerateContent(ctx, p.cfg.ImageModel, contents, nil)
	if err != nil {
		return content.Image{}, fmt.Errorf("gemini image generation: %w", err)
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return content.Image{}, content.ErrNoImage
	}
	return content.Image{Data: blob.Data, MIMEType: blob.MIMEType}, nil
}

// Synthesize pronounces text. Gemini returns raw 16-bit PCM at 24kHz.
func (p *Provider) Synthesize(ctx context.Context, text string) (content.Speech, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(text)}, genai.RoleUser),
	}

	resp, err := p.models.GenerateContent(ctx, p.cfg.SpeechModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: p.cfg.Voice},
			},
		},
	})
	if err != nil {
		return content.Speech{}, fmt.Errorf("gemini speech synthesis: %w", err)
	}

	blob := firstInlineData(resp)
	if blob == nil {
		return content.Speech{}, content.ErrNoAudio
	}
	return content.Speech{Data: blob.Data, Format: speechFormat(blob.MIMEType)}, nil
}

// Judge asks the text model to listen to the recording.
func (p *Provider) Judge(ctx context.Context, target string, audio []byte, mimeType string) (bool, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(audio, mimeType),
			genai.NewPartFromText(content.JudgePrompt(target)),
		}, genai.RoleUser),
	}

	resp, err := p.models.GenerateContent(ctx, p.cfg.TextModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   verdictSchema,
	})
	if err != nil {
		return false, fmt.Errorf("gemini pronunciation check: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return false, ErrEmptyResponse
	}

	var verdict struct {
		Correct bool `json:"correct"`
	}
	if err := json.Unmarshal([]byte(text), &verdict); err != nil {
		return false, fmt.Errorf("decode verdict: %w", err)
	}
	log.Printf("[gemini] verdict for %q: %t", target, verdict.Correct)
	return verdict.Correct, nil
}

// speechFormat maps the returned MIME type to the proxy format name.
func speechFormat(mimeType string) string {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mt, "mpeg"), strings.Contains(mt, "mp3"):
		return "mp3"
	case strings.Contains(mt, "wav"):
		return "wav"
	default:
		// audio/L16;codec=pcm;rate=24000
		return "pcm"
	}
}
