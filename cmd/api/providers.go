package main

import (
	"context"
	"fmt"
	"log"

	"github.com/zhouzirui/chytanka/backend/internal/analysis/pronunciation"
	"github.com/zhouzirui/chytanka/backend/internal/config"
	speechModel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
	"github.com/zhouzirui/chytanka/backend/internal/service/ai"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
	"github.com/zhouzirui/chytanka/backend/internal/service/gemini"
	"github.com/zhouzirui/chytanka/backend/internal/service/speech"
)

// buildProviders picks an implementation per capability. Images always come
// from Gemini, so its API key is required.
func buildProviders(ctx context.Context, cfg *config.Config) (content.Providers, error) {
	if !cfg.Gemini.Enabled() {
		return content.Providers{}, fmt.Errorf("GEMINI_API_KEY (or API_KEY) is required")
	}

	geminiProvider, err := gemini.New(ctx, gemini.Config{
		APIKey:      cfg.Gemini.APIKey,
		TextModel:   cfg.Gemini.TextModel,
		ImageModel:  cfg.Gemini.ImageModel,
		SpeechModel: cfg.Gemini.SpeechModel,
		Voice:       cfg.Gemini.Voice,
	})
	if err != nil {
		return content.Providers{}, fmt.Errorf("gemini client: %w", err)
	}

	providers := content.Providers{
		Words:  geminiProvider,
		Images: geminiProvider,
		Speech: geminiProvider,
		Judge:  geminiProvider,
	}

	if cfg.Providers.Word == config.ProviderArk {
		if !cfg.AI.Enabled() {
			return content.Providers{}, fmt.Errorf("WORD_PROVIDER=ark requires ARK_API_KEY and Model")
		}
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return content.Providers{}, fmt.Errorf("ark chat model: %w", err)
		}
		generator, err := ai.NewWordGenerator(ctx, chatModel)
		if err != nil {
			return content.Providers{}, fmt.Errorf("ark word generator: %w", err)
		}
		providers.Words = generator
		log.Println("word generation: ark")
	}

	if cfg.Providers.Speech == config.ProviderVolcengine || cfg.Providers.Verdict == config.ProviderVolcengine {
		speechSvc, err := speech.NewService(&speechModel.SpeechConfig{
			AppID:          cfg.Speech.AppID,
			AccessToken:    cfg.Speech.AccessToken,
			BaseURL:        cfg.Speech.BaseURL,
			ConcurrentMode: cfg.Speech.ConcurrentMode,
			ASRLanguage:    cfg.Speech.ASRLanguage,
			TTSVoice:       cfg.Speech.TTSVoice,
			TTSSpeed:       cfg.Speech.TTSSpeed,
			TTSVolume:      cfg.Speech.TTSVolume,
			TTSFormat:      cfg.Speech.TTSFormat,
			Timeout:        cfg.Speech.Timeout,
		}, pronunciation.New())
		if err != nil {
			return content.Providers{}, fmt.Errorf("volcengine speech: %w", err)
		}
		if cfg.Providers.Speech == config.ProviderVolcengine {
			providers.Speech = speechSvc
			log.Println("speech synthesis: volcengine")
		}
		if cfg.Providers.Verdict == config.ProviderVolcengine {
			providers.Judge = speechSvc
			log.Println("pronunciation verdicts: volcengine asr (clients must upload wav, ogg or mp3)")
		}
	}

	return providers, nil
}
