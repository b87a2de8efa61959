// Package pronunciation decides whether a speech transcript contains the word
// a child was asked to read.
//
// Children stutter, repeat syllables and pause between them, so the
// transcript is compared token by token: every word of the target must be
// matched by some transcript token (or by the transcript with separators
// removed) with a Jaro-Winkler similarity above the threshold.
package pronunciation

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const defaultThreshold = 0.85

// Decision is the result of comparing a transcript with the target word.
type Decision struct {
	Correct bool
	// Score is the weakest per-word similarity, in [0, 1].
	Score float64
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithThreshold sets the minimum similarity each target word needs.
func WithThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

// Matcher compares transcripts with target words. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	threshold float64
}

// New returns a Matcher with the default threshold of 0.85.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: defaultThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Analyze compares transcript with target.
func (m *Matcher) Analyze(target, transcript string) Decision {
	targetTokens := Tokens(target)
	spokenTokens := Tokens(transcript)
	if len(targetTokens) == 0 || len(spokenTokens) == 0 {
		return Decision{}
	}

	weakest := 1.0
	for _, want := range targetTokens {
		best := 0.0
		for _, got := range spokenTokens {
			if s := matchr.JaroWinkler(want, got, false); s > best {
				best = s
			}
		}
		if best < weakest {
			weakest = best
		}
	}

	// syllables spoken apart ("ко тик") only match once glued together
	joined := matchr.JaroWinkler(strings.Join(targetTokens, ""), strings.Join(spokenTokens, ""), false)
	if joined > weakest {
		weakest = joined
	}

	return Decision{Correct: weakest >= m.threshold, Score: weakest}
}

// Tokens lower-cases s and splits it into letter runs. Apostrophes inside a
// word are dropped so "м'яч", "м’яч" and "мяч" compare equal.
func Tokens(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r):
			current.WriteRune(r)
		case isApostrophe(r):
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isApostrophe(r rune) bool {
	switch r {
	case '\'', '’', 'ʼ', '`':
		return true
	}
	return false
}
