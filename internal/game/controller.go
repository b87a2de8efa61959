package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/zhouzirui/chytanka/backend/internal/model/word"
)

// MaxAttempts is the number of incorrect verdicts that ends a round.
const MaxAttempts = 3

// hintAfter is the attempt count at which replaying the word is offered.
const hintAfter = 2

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("game controller closed")

// Snapshot is an immutable view of the controller.
type Snapshot struct {
	State        State
	Round        uint64
	Challenge    *word.Challenge
	Attempts     int
	AttemptsLeft int
	MediaLoading bool

	SpeechAvailable bool
	HintUnlocked    bool

	// Illustration is only set once the round was won.
	Illustration        *Illustration
	IllustrationPending bool

	Err error
}

// Controller runs the game loop: fetch a word, record attempts, judge them
// and reveal the illustration on success.
type Controller struct {
	provider ContentProvider
	recency  *RecencyStore
	capture  CaptureDevice
	playback *Playback

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	idle         *sync.Cond
	background   int
	state        State
	round        uint64
	challenge    *word.Challenge
	attempts     int
	illustration *Illustration
	speech       *SpeechAudio
	mediaLoading bool
	session      *CaptureSession
	opening      bool
	lastErr      error
	closed       bool
	observers    []func(Snapshot)

	// queue holds snapshots not yet delivered; one goroutine at a time
	// drains it so observers see them in order.
	queue      []Snapshot
	delivering bool
}

// NewController wires the game to its provider and devices. ctx bounds the
// lifetime of background fetches.
func NewController(ctx context.Context, provider ContentProvider, recency *RecencyStore, capture CaptureDevice, playback PlaybackDevice) *Controller {
	ctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		provider: provider,
		recency:  recency,
		capture:  capture,
		playback: NewPlayback(playback),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateInitial,
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// OnChange registers fn to receive a snapshot after every change.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           c.state,
		Round:           c.round,
		Attempts:        c.attempts,
		AttemptsLeft:    MaxAttempts - c.attempts,
		MediaLoading:    c.mediaLoading,
		SpeechAvailable: c.speech != nil,
		HintUnlocked:    c.attempts >= hintAfter,
		Err:             c.lastErr,
	}
	if c.challenge != nil {
		ch := *c.challenge
		ch.DisplayForm = append([]string(nil), c.challenge.DisplayForm...)
		snap.Challenge = &ch
	}
	if c.state == StateSuccess {
		if c.illustration != nil {
			img := *c.illustration
			snap.Illustration = &img
		} else {
			snap.IllustrationPending = true
		}
	}
	return snap
}

// notify queues the current snapshot. If another goroutine is already
// delivering, it picks the snapshot up before returning.
func (c *Controller) notify() {
	c.mu.Lock()
	c.queue = append(c.queue, c.snapshotLocked())
	if c.delivering {
		c.mu.Unlock()
		return
	}
	c.delivering = true
	for len(c.queue) > 0 {
		batch := c.queue
		c.queue = nil
		observers := make([]func(Snapshot), len(c.observers))
		copy(observers, c.observers)
		c.mu.Unlock()

		for _, snap := range batch {
			for _, fn := range observers {
				fn(snap)
			}
		}

		c.mu.Lock()
	}
	c.delivering = false
	c.mu.Unlock()
}

// goBackground runs fn on its own goroutine and tracks it for Wait.
func (c *Controller) goBackground(fn func()) {
	c.mu.Lock()
	c.background++
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			c.background--
			if c.background == 0 {
				c.idle.Broadcast()
			}
			c.mu.Unlock()
		}()
		fn()
	}()
}

// Start requests the first word.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateInitial {
		c.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, c.state)
	}
	round := c.beginRoundLocked()
	c.mu.Unlock()

	c.notify()
	return c.loadWord(ctx, round)
}

// Advance discards the finished round and requests the next word. It also
// retries after a failed word fetch.
func (c *Controller) Advance(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.state.RoundOver() && c.state != StateError {
		c.mu.Unlock()
		return fmt.Errorf("%w: advance from %s", ErrInvalidTransition, c.state)
	}
	round := c.beginRoundLocked()
	c.mu.Unlock()

	c.notify()
	return c.loadWord(ctx, round)
}

// beginRoundLocked drops every round-scoped value and enters Loading.
func (c *Controller) beginRoundLocked() uint64 {
	c.round++
	c.state = StateLoading
	c.challenge = nil
	c.attempts = 0
	c.illustration = nil
	c.speech = nil
	c.mediaLoading = false
	c.lastErr = nil
	return c.round
}

func (c *Controller) loadWord(ctx context.Context, round uint64) error {
	excluded := c.recency.Exclusions()

	challenge, err := c.provider.FetchWord(ctx, excluded)
	if err == nil {
		err = challenge.Validate()
	}

	c.mu.Lock()
	if c.round != round {
		c.mu.Unlock()
		log.Printf("[game] discarding word for abandoned round %d", round)
		return nil
	}
	if err != nil {
		c.state = StateError
		c.lastErr = fmt.Errorf("%w: %v", ErrWordUnavailable, err)
		err = c.lastErr
		c.mu.Unlock()

		log.Printf("[game] round %d: %v", round, err)
		c.notify()
		return err
	}

	c.challenge = &challenge
	c.state = StateReady
	c.mediaLoading = true
	c.mu.Unlock()

	c.recency.Record(challenge.NormalizedWord)
	log.Printf("[game] round %d: word %q ready", round, challenge.NormalizedWord)
	c.notify()

	c.prefetch(round, challenge)
	return nil
}

// prefetch loads the illustration and the speech audio in the background.
// Either may fail without affecting the round.
func (c *Controller) prefetch(round uint64, challenge word.Challenge) {
	c.goBackground(func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			img, err := c.provider.FetchIllustration(c.ctx, challenge.IllustrationPrompt)
			if err != nil {
				log.Printf("[game] round %d: illustration unavailable: %v", round, err)
				return
			}
			c.applyForRound(round, func() { c.illustration = &img })
		}()
		go func() {
			defer wg.Done()
			audio, err := c.provider.FetchSpeech(c.ctx, challenge.NormalizedWord)
			if err != nil {
				log.Printf("[game] round %d: speech unavailable: %v", round, err)
				return
			}
			if len(audio.Data) == 0 {
				log.Printf("[game] round %d: speech came back empty", round)
				return
			}
			c.applyForRound(round, func() { c.speech = &audio })
		}()
		wg.Wait()

		c.applyForRound(round, func() { c.mediaLoading = false })
	})
}

// applyForRound runs fn under the lock if round is still current.
func (c *Controller) applyForRound(round uint64, fn func()) {
	c.mu.Lock()
	if c.round != round {
		c.mu.Unlock()
		log.Printf("[game] discarding late result for round %d", round)
		return
	}
	fn()
	c.mu.Unlock()

	c.notify()
}

// StartRecording opens the microphone. On failure the round stays Ready and
// the error is returned.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.session != nil || c.opening {
		c.mu.Unlock()
		return ErrCaptureActive
	}
	if c.state != StateReady {
		c.mu.Unlock()
		return fmt.Errorf("%w: record from %s", ErrInvalidTransition, c.state)
	}
	c.opening = true
	round := c.round
	c.mu.Unlock()

	session, err := OpenCapture(ctx, c.capture)

	c.mu.Lock()
	c.opening = false
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()

		log.Printf("[game] microphone unavailable: %v", err)
		c.notify()
		return err
	}
	if c.closed || c.round != round || c.state != StateReady {
		c.mu.Unlock()
		_ = session.Abort()
		return fmt.Errorf("%w: round changed while opening microphone", ErrInvalidTransition)
	}
	c.session = session
	c.state = StateRecording
	c.lastErr = nil
	c.mu.Unlock()

	c.notify()
	return nil
}

// StopRecording closes the microphone and judges the attempt.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording || c.session == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, c.state)
	}
	session := c.session
	c.session = nil
	c.state = StateEvaluating
	round := c.round
	target := c.challenge.NormalizedWord
	c.mu.Unlock()

	c.notify()

	audio, err := session.Stop()
	if err != nil {
		return c.verdictFailed(round, err)
	}

	correct, err := c.provider.FetchVerdict(ctx, target, audio.Data, audio.Encoding)
	if err != nil {
		return c.verdictFailed(round, err)
	}

	c.mu.Lock()
	if c.round != round {
		c.mu.Unlock()
		log.Printf("[game] discarding verdict for abandoned round %d", round)
		return nil
	}

	cue := CueFailure
	switch {
	case correct:
		c.state = StateSuccess
		cue = CueSuccess
	case c.attempts+1 >= MaxAttempts:
		c.attempts = MaxAttempts
		c.state = StateFailure
	default:
		c.attempts++
		c.state = StateReady
	}
	c.lastErr = nil
	attempts := c.attempts
	state := c.state
	c.mu.Unlock()

	log.Printf("[game] round %d: verdict correct=%t attempts=%d state=%s", round, correct, attempts, state)
	c.notify()
	c.playCue(cue)
	return nil
}

// verdictFailed returns the round to Ready without consuming an attempt.
func (c *Controller) verdictFailed(round uint64, cause error) error {
	err := fmt.Errorf("%w: %v", ErrVerdictUnavailable, cause)

	c.mu.Lock()
	if c.round != round {
		c.mu.Unlock()
		return nil
	}
	c.state = StateReady
	c.lastErr = err
	c.mu.Unlock()

	log.Printf("[game] round %d: %v", round, err)
	c.notify()
	return err
}

func (c *Controller) playCue(cue Cue) {
	c.goBackground(func() {
		c.playback.PlayCue(c.ctx, cue)
	})
}

// PlayWord plays the prefetched pronunciation of the current word.
func (c *Controller) PlayWord(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateRecording || c.state == StateEvaluating {
		c.mu.Unlock()
		return fmt.Errorf("%w: play from %s", ErrInvalidTransition, c.state)
	}
	if c.speech == nil {
		c.mu.Unlock()
		return ErrSpeechUnavailable
	}
	data := c.speech.Data
	c.mu.Unlock()

	// playback problems are logged by Playback and never block the round
	_ = c.playback.Play(ctx, data)
	return nil
}

// Wait blocks until background fetches and cues have finished. Work started
// while Wait is blocked is waited for as well.
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.background > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// Close releases the microphone and stops background work.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	session := c.session
	c.session = nil
	if c.state == StateRecording {
		c.state = StateReady
	}
	c.mu.Unlock()

	if session != nil {
		if err := session.Abort(); err != nil && !errors.Is(err, ErrCaptureClosed) {
			log.Printf("[game] abort capture on close: %v", err)
		}
	}
	c.cancel()
	return nil
}
