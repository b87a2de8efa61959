package content

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
)

var (
	// ErrEmptyInput is returned when a required request field is blank.
	ErrEmptyInput = errors.New("required input is empty")
	// ErrNoImage is returned when the model answered without image data.
	ErrNoImage = errors.New("model returned no image")
	// ErrNoAudio is returned when the model answered without audio data.
	ErrNoAudio = errors.New("model returned no audio")
	// ErrUnsupportedAudio is returned when a judge cannot read the recording.
	ErrUnsupportedAudio = errors.New("unsupported audio format")
)

// Image is generated picture data.
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURL renders the image as a data URL.
func (i Image) DataURL() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Speech is synthesized audio. Format is "pcm" for raw 16-bit 24kHz mono,
// otherwise a container name such as "mp3" or "wav".
type Speech struct {
	Data   []byte
	Format string
}

// WordGenerator proposes a new word that is not in excluded.
type WordGenerator interface {
	GenerateWord(ctx context.Context, excluded []string) (word.Wire, error)
}

// ImageGenerator draws an illustration for prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// SpeechSynthesizer pronounces text.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (Speech, error)
}

// PronunciationJudge decides whether audio is a reading of target.
type PronunciationJudge interface {
	Judge(ctx context.Context, target string, audio []byte, mimeType string) (bool, error)
}
