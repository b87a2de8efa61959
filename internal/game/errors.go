package game

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")

	// ErrPermissionDenied is returned when microphone access is refused.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable is returned when no capture device can be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrCaptureActive is returned when a second capture session is requested.
	ErrCaptureActive = errors.New("capture session already active")
	// ErrCaptureClosed is returned by Stop or Abort on a finished session.
	ErrCaptureClosed = errors.New("capture session already closed")

	// ErrWordUnavailable wraps word fetch failures that put the round into Error.
	ErrWordUnavailable = errors.New("word fetch failed")
	// ErrVerdictUnavailable wraps verdict transport failures. No attempt is consumed.
	ErrVerdictUnavailable = errors.New("pronunciation verdict unavailable")
	// ErrSpeechUnavailable is returned by PlayWord when no speech audio arrived.
	ErrSpeechUnavailable = errors.New("speech audio not available")
)
