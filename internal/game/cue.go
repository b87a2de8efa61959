package game

import "math"

// Cue is a short synthetic feedback sound.
type Cue int

const (
	CueSuccess Cue = iota
	CueFailure
)

func (c Cue) String() string {
	if c == CueSuccess {
		return "success"
	}
	return "failure"
}

const cueFloorGain = 0.01

// SynthesizeCue renders cue as a mono buffer.
//
// Success is a sine "ding ding" (C5 then E5 after 100ms) fading out over 500ms.
// Failure is a descending triangle (150 to 100Hz, then 100 to 80Hz) fading out
// over 400ms.
func SynthesizeCue(cue Cue, sampleRate int) Buffer {
	var (
		length   float64
		freqAt   func(t float64) float64
		waveform func(phase float64) float64
	)

	switch cue {
	case CueSuccess:
		length = 0.5
		waveform = sine
		freqAt = func(t float64) float64 {
			if t < 0.1 {
				return 523.25
			}
			return 659.25
		}
	default:
		length = 0.4
		waveform = triangle
		freqAt = func(t float64) float64 {
			switch {
			case t < 0.15:
				return 150 + (100-150)*(t/0.15)
			case t < 0.3:
				return 100 + (80-100)*((t-0.15)/0.15)
			default:
				return 80
			}
		}
	}

	n := int(length * float64(sampleRate))
	samples := make([]float32, n)
	phase := 0.0
	for i := range n {
		t := float64(i) / float64(sampleRate)
		gain := math.Pow(cueFloorGain, t/length)
		samples[i] = float32(gain * waveform(phase))
		phase += freqAt(t) / float64(sampleRate)
		phase -= math.Floor(phase)
	}

	return Buffer{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

// phase is in cycles, [0, 1).
func sine(phase float64) float64 {
	return math.Sin(2 * math.Pi * phase)
}

func triangle(phase float64) float64 {
	return 1 - 4*math.Abs(phase-0.5)
}
