package speech

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/chytanka/backend/internal/analysis/pronunciation"
	speechmodel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
)

// Service offers Volcengine TTS as a speech synthesizer and Volcengine ASR,
// followed by fuzzy matching, as a pronunciation judge.
type Service struct {
	config  *speechmodel.SpeechConfig
	tts     *TTSClient
	asr     *ASRClient
	matcher *pronunciation.Matcher
}

// NewService builds both clients for cfg.
func NewService(cfg *speechmodel.SpeechConfig, matcher *pronunciation.Matcher) (*Service, error) {
	if _, _, err := resolveCredentials(cfg); err != nil {
		return nil, err
	}
	if matcher == nil {
		matcher = pronunciation.New()
	}
	return &Service{
		config:  cfg,
		tts:     NewTTSClient(cfg),
		asr:     NewASRClient(cfg),
		matcher: matcher,
	}, nil
}

// Synthesize implements content.SpeechSynthesizer.
func (s *Service) Synthesize(ctx context.Context, text string) (content.Speech, error) {
	resp, err := s.tts.Synthesize(ctx, &speechmodel.TTSRequest{
		Text:       text,
		SampleRate: TTSSampleRate,
	})
	if err != nil {
		return content.Speech{}, err
	}
	return content.Speech{Data: resp.AudioData, Format: resp.Format}, nil
}

// Transcribe returns what the recognizer heard in audio.
func (s *Service) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	format, codec, err := AudioFormat(mimeType)
	if err != nil {
		return "", err
	}

	resp, err := s.asr.Transcribe(ctx, &speechmodel.ASRRequest{
		Audio:    audio,
		Format:   format,
		Codec:    codec,
		Language: s.config.ASRLanguage,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Judge implements content.PronunciationJudge. An empty transcript is an
// incorrect attempt, not an error.
func (s *Service) Judge(ctx context.Context, target string, audio []byte, mimeType string) (bool, error) {
	transcript, err := s.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return false, fmt.Errorf("transcribe attempt: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return false, nil
	}

	decision := s.matcher.Analyze(target, transcript)
	log.Printf("[speech] judged %q against %q: correct=%t score=%.2f", transcript, target, decision.Correct, decision.Score)
	return decision.Correct, nil
}

var (
	_ content.SpeechSynthesizer  = (*Service)(nil)
	_ content.PronunciationJudge = (*Service)(nil)
)
