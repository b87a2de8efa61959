package game

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
)

// PCMSampleRate is the rate assumed for raw synthesized speech.
const PCMSampleRate = 24000

// Buffer is decoded audio ready for output. Samples are interleaved in [-1, 1].
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Duration returns the playback length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 || b.Channels <= 0 {
		return 0
	}
	return float64(len(b.Samples)/b.Channels) / float64(b.SampleRate)
}

// PlaybackDevice is the platform audio output capability.
type PlaybackDevice interface {
	// DecodeContainer decodes a self-describing container (WAV, MP3, ...).
	DecodeContainer(data []byte) (Buffer, error)
	// Play outputs buf.
	Play(ctx context.Context, buf Buffer) error
}

// DecodeKind tells which decode stage produced a buffer.
type DecodeKind int

const (
	DecodeContainer DecodeKind = iota + 1
	DecodeRawPCM
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeContainer:
		return "container"
	case DecodeRawPCM:
		return "raw-pcm"
	default:
		return "unknown"
	}
}

// DecodeResult is the outcome of the two-stage decode.
type DecodeResult struct {
	Kind   DecodeKind
	Buffer Buffer
}

var errEmptyAudio = errors.New("audio payload is empty")

// Decode tries container decoding first and falls back to raw 16-bit
// little-endian mono PCM at PCMSampleRate.
func Decode(device PlaybackDevice, data []byte) (DecodeResult, error) {
	if len(data) == 0 {
		return DecodeResult{}, errEmptyAudio
	}

	if device != nil {
		buf, err := device.DecodeContainer(data)
		if err == nil && len(buf.Samples) > 0 {
			return DecodeResult{Kind: DecodeContainer, Buffer: buf}, nil
		}
	}

	buf, err := DecodePCM16(data, PCMSampleRate)
	if err != nil {
		return DecodeResult{}, err
	}
	return DecodeResult{Kind: DecodeRawPCM, Buffer: buf}, nil
}

// DecodePCM16 interprets data as 16-bit little-endian mono samples. A trailing
// odd byte is ignored.
func DecodePCM16(data []byte, sampleRate int) (Buffer, error) {
	count := len(data) / 2
	if count == 0 {
		return Buffer{}, errEmptyAudio
	}

	samples := make([]float32, count)
	for i := range count {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return Buffer{SampleRate: sampleRate, Channels: 1, Samples: samples}, nil
}

// Playback plays synthesized speech and feedback cues. Failures are logged
// and returned, never fatal to the game.
type Playback struct {
	device PlaybackDevice
}

// NewPlayback wraps device.
func NewPlayback(device PlaybackDevice) *Playback {
	return &Playback{device: device}
}

// Play decodes and plays encoded speech audio.
func (p *Playback) Play(ctx context.Context, encoded []byte) error {
	if p == nil || p.device == nil {
		return nil
	}

	result, err := Decode(p.device, encoded)
	if err != nil {
		log.Printf("[playback] decode failed: %v", err)
		return fmt.Errorf("decode speech: %w", err)
	}

	if err := p.device.Play(ctx, result.Buffer); err != nil {
		log.Printf("[playback] audio playback error: %v", err)
		return fmt.Errorf("play speech: %w", err)
	}
	return nil
}

// PlayCue plays a procedurally generated feedback sound.
func (p *Playback) PlayCue(ctx context.Context, cue Cue) {
	if p == nil || p.device == nil {
		return
	}
	if err := p.device.Play(ctx, SynthesizeCue(cue, PCMSampleRate)); err != nil {
		log.Printf("[playback] %s cue failed: %v", cue, err)
	}
}
