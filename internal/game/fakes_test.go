package game

import (
	"context"
	"errors"
	"sync"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
)

type fakeProvider struct {
	mu sync.Mutex

	words    []word.Challenge
	wordErr  error
	excluded [][]string

	illustration    Illustration
	illustrationErr error
	illustrations   map[string]Illustration
	// gates block FetchIllustration for a prompt until closed.
	gates map[string]chan struct{}

	speech    SpeechAudio
	speechErr error

	verdicts   []bool
	verdictErr error
	judged     []string
	encodings  []string
}

func (p *fakeProvider) FetchWord(_ context.Context, excluded []string) (word.Challenge, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.excluded = append(p.excluded, append([]string(nil), excluded...))
	if p.wordErr != nil {
		return word.Challenge{}, p.wordErr
	}
	if len(p.words) == 0 {
		return word.Challenge{}, errors.New("no words left")
	}
	next := p.words[0]
	p.words = p.words[1:]
	return next, nil
}

func (p *fakeProvider) gate(prompt string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gates == nil {
		p.gates = make(map[string]chan struct{})
	}
	ch := make(chan struct{})
	p.gates[prompt] = ch
	return ch
}

func (p *fakeProvider) FetchIllustration(ctx context.Context, prompt string) (Illustration, error) {
	p.mu.Lock()
	gate := p.gates[prompt]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return Illustration{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if img, ok := p.illustrations[prompt]; ok {
		return img, nil
	}
	return p.illustration, p.illustrationErr
}

func (p *fakeProvider) FetchSpeech(_ context.Context, _ string) (SpeechAudio, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speech, p.speechErr
}

func (p *fakeProvider) FetchVerdict(_ context.Context, target string, _ []byte, encoding string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.judged = append(p.judged, target)
	p.encodings = append(p.encodings, encoding)
	if p.verdictErr != nil {
		return false, p.verdictErr
	}
	if len(p.verdicts) == 0 {
		return false, nil
	}
	next := p.verdicts[0]
	p.verdicts = p.verdicts[1:]
	return next, nil
}

type fakeCapture struct {
	mu        sync.Mutex
	supported map[string]bool
	openErr   error
	chunks    [][]byte
	opened    int
	streams   []*fakeStream
}

func (d *fakeCapture) Supports(encoding string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supported[encoding]
}

func (d *fakeCapture) Open(_ context.Context, _ string, sink func([]byte)) (CaptureStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++
	s := &fakeStream{sink: sink, chunks: d.chunks}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *fakeCapture) releasedAll() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.streams {
		if s.released == 0 {
			return false
		}
	}
	return true
}

type fakeStream struct {
	sink     func([]byte)
	chunks   [][]byte
	stopErr  error
	stopped  int
	released int
}

func (s *fakeStream) Stop() error {
	s.stopped++
	if s.stopErr != nil {
		return s.stopErr
	}
	for _, chunk := range s.chunks {
		s.sink(chunk)
	}
	return nil
}

func (s *fakeStream) Release() error {
	s.released++
	return nil
}

type fakePlayback struct {
	mu        sync.Mutex
	decodeErr error
	decoded   Buffer
	played    []Buffer
	playErr   error
}

func (p *fakePlayback) DecodeContainer(_ []byte) (Buffer, error) {
	if p.decodeErr != nil {
		return Buffer{}, p.decodeErr
	}
	return p.decoded, nil
}

func (p *fakePlayback) Play(_ context.Context, buf Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, buf)
	return p.playErr
}

func (p *fakePlayback) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.played)
}

func mustChallenge(clean, syllables, prompt string) word.Challenge {
	c, err := word.New(clean, syllables, prompt)
	if err != nil {
		panic(err)
	}
	return c
}
