package word

import (
	"errors"
	"strings"
)

// ErrUnusable is returned when generated word data cannot be played.
var ErrUnusable = errors.New("word data is unusable")

// Challenge is the unit of play: one word split into syllable groups.
type Challenge struct {
	DisplayForm        []string `json:"displayForm"`
	NormalizedWord     string   `json:"normalizedWord"`
	IllustrationPrompt string   `json:"illustrationPrompt"`
}

// Wire mirrors the JSON the proxy exchanges with the client.
type Wire struct {
	CleanWord   string `json:"cleanWord" yaml:"cleanWord"`
	Syllables   string `json:"syllables" yaml:"syllables"`
	ImagePrompt string `json:"imagePrompt" yaml:"imagePrompt"`
}

// New builds a Challenge from a clean word and its hyphenated syllable string.
// Each whitespace-separated group becomes one display line.
func New(cleanWord, syllables, prompt string) (Challenge, error) {
	normalized := strings.TrimSpace(cleanWord)
	groups := strings.Fields(syllables)
	if len(groups) == 0 && normalized != "" {
		groups = strings.Fields(normalized)
	}
	if normalized == "" || len(groups) == 0 {
		return Challenge{}, ErrUnusable
	}

	return Challenge{
		DisplayForm:        groups,
		NormalizedWord:     normalized,
		IllustrationPrompt: strings.TrimSpace(prompt),
	}, nil
}

// FromWire converts proxy JSON into a Challenge.
func FromWire(w Wire) (Challenge, error) {
	return New(w.CleanWord, w.Syllables, w.ImagePrompt)
}

// Wire returns the proxy representation of c.
func (c Challenge) Wire() Wire {
	return Wire{
		CleanWord:   c.NormalizedWord,
		Syllables:   strings.Join(c.DisplayForm, " "),
		ImagePrompt: c.IllustrationPrompt,
	}
}

// Validate reports whether the wire payload carries everything a round needs.
func (w Wire) Validate() error {
	if strings.TrimSpace(w.CleanWord) == "" || strings.TrimSpace(w.Syllables) == "" {
		return ErrUnusable
	}
	return nil
}

// Validate reports whether c can be played.
func (c Challenge) Validate() error {
	if strings.TrimSpace(c.NormalizedWord) == "" || len(c.DisplayForm) == 0 {
		return ErrUnusable
	}
	return nil
}
