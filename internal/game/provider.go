package game

import (
	"context"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
)

// Illustration is the reward image of a round, as a data URL.
type Illustration struct {
	DataURL string
}

// SpeechAudio is synthesized pronunciation of the round's word.
type SpeechAudio struct {
	Data   []byte
	Format string
}

// ContentProvider supplies words, media and verdicts. Each call is an
// independent request.
type ContentProvider interface {
	FetchWord(ctx context.Context, excluded []string) (word.Challenge, error)
	FetchIllustration(ctx context.Context, prompt string) (Illustration, error)
	FetchSpeech(ctx context.Context, text string) (SpeechAudio, error)
	FetchVerdict(ctx context.Context, target string, audio []byte, encoding string) (bool, error)
}
