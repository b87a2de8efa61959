package content

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/lo"

	"github.com/zhouzirui/chytanka/backend/internal/metrics"
	"github.com/zhouzirui/chytanka/backend/internal/model/word"
)

const (
	// ExclusionTail is how many of the most recent exclusions reach the model.
	ExclusionTail = 50
	// DefaultMIMEType is assumed for recordings sent without a type.
	DefaultMIMEType = "audio/webm"
)

// Providers groups the capability implementations.
type Providers struct {
	Words  WordGenerator
	Images ImageGenerator
	Speech SpeechSynthesizer
	Judge  PronunciationJudge
}

// Options tunes the Service.
type Options struct {
	SpeechCacheSize int
	SpeechCacheTTL  time.Duration
}

// Service fronts the providers with the proxy rules: exclusion trimming,
// fallback words and a speech cache.
type Service struct {
	providers Providers
	pool      word.Pool
	speech    *expirable.LRU[string, Speech]
}

// NewService creates a Service. pool supplies words when generation fails.
func NewService(providers Providers, pool word.Pool, opts Options) *Service {
	s := &Service{providers: providers, pool: pool}
	if opts.SpeechCacheSize > 0 {
		s.speech = expirable.NewLRU[string, Speech](opts.SpeechCacheSize, nil, opts.SpeechCacheTTL)
	}
	return s
}

// NextWord asks the generator for a new word. It never fails: on any
// generator problem a fallback word not in excluded is returned and
// fallback is true.
func (s *Service) NextWord(ctx context.Context, excluded []string) (w word.Wire, fallback bool) {
	recent := TailExclusions(excluded, ExclusionTail)

	start := time.Now()
	generated, err := s.providers.Words.GenerateWord(ctx, recent)
	if err == nil {
		err = generated.Validate()
	}
	metrics.ObserveUpstream("word", start, err)

	if err == nil {
		return generated, false
	}

	log.Printf("[proxy] word generation failed, using fallback: %v", err)
	metrics.FallbackWordServed()
	return s.pool.Pick(excluded), true
}

// Image generates the illustration for prompt.
func (s *Service) Image(ctx context.Context, prompt string) (Image, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Image{}, fmt.Errorf("%w: prompt", ErrEmptyInput)
	}

	start := time.Now()
	img, err := s.providers.Images.GenerateImage(ctx, prompt)
	if err == nil && len(img.Data) == 0 {
		err = ErrNoImage
	}
	metrics.ObserveUpstream("image", start, err)
	if err != nil {
		return Image{}, err
	}
	return img, nil
}

// Speech synthesizes text, serving repeated texts from the cache.
func (s *Service) Speech(ctx context.Context, text string) (Speech, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Speech{}, fmt.Errorf("%w: text", ErrEmptyInput)
	}

	if s.speech != nil {
		cached, ok := s.speech.Get(text)
		metrics.SpeechCacheLookup(ok)
		if ok {
			return cached, nil
		}
	}

	start := time.Now()
	audio, err := s.providers.Speech.Synthesize(ctx, text)
	if err == nil && len(audio.Data) == 0 {
		err = ErrNoAudio
	}
	metrics.ObserveUpstream("tts", start, err)
	if err != nil {
		return Speech{}, err
	}

	if s.speech != nil {
		s.speech.Add(text, audio)
	}
	return audio, nil
}

// Judge evaluates a recorded attempt at target.
func (s *Service) Judge(ctx context.Context, target string, audio []byte, mimeType string) (bool, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return false, fmt.Errorf("%w: targetWord", ErrEmptyInput)
	}
	if len(audio) == 0 {
		return false, fmt.Errorf("%w: audio", ErrEmptyInput)
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DefaultMIMEType
	}

	start := time.Now()
	correct, err := s.providers.Judge.Judge(ctx, target, audio, mimeType)
	metrics.ObserveUpstream("pronunciation", start, err)
	return correct, err
}

// TailExclusions drops blanks and keeps the last n entries.
func TailExclusions(excluded []string, n int) []string {
	cleaned := lo.Compact(lo.Map(excluded, func(w string, _ int) string {
		return strings.TrimSpace(w)
	}))
	if len(cleaned) <= n {
		return cleaned
	}
	return cleaned[len(cleaned)-n:]
}
