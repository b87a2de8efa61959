package game

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// DefaultEncoding is declared when the device supports none of the preferred encodings.
const DefaultEncoding = "audio/webm"

// PreferredEncodings lists recording encodings from most to least preferred.
var PreferredEncodings = []string{"audio/webm;codecs=opus", "audio/webm", "audio/wav"}

// CaptureDevice is the platform microphone capability.
type CaptureDevice interface {
	// Supports reports whether the device can record in encoding.
	Supports(encoding string) bool
	// Open asks for microphone access and starts recording. Encoded chunks are
	// delivered to sink until the stream is stopped. Implementations return
	// ErrPermissionDenied when access is refused.
	Open(ctx context.Context, encoding string, sink func([]byte)) (CaptureStream, error)
}

// CaptureStream is a live recording on an acquired device.
type CaptureStream interface {
	// Stop ends the recording. All pending chunks reach the sink before it returns.
	Stop() error
	// Release frees the device. Calling it more than once is harmless.
	Release() error
}

// CapturedAudio is a finished recording.
type CapturedAudio struct {
	Data     []byte
	Encoding string
}

// NegotiateEncoding returns the first preferred encoding the device supports,
// or DefaultEncoding.
func NegotiateEncoding(device CaptureDevice, preferred []string) string {
	for _, encoding := range preferred {
		if device.Supports(encoding) {
			return encoding
		}
	}
	return DefaultEncoding
}

// CaptureSession owns one open microphone recording. It is never reused.
type CaptureSession struct {
	mu       sync.Mutex
	stream   CaptureStream
	encoding string
	closed   bool

	bufMu sync.Mutex
	buf   bytes.Buffer
}

// OpenCapture acquires the microphone and starts a new session.
func OpenCapture(ctx context.Context, device CaptureDevice) (*CaptureSession, error) {
	if device == nil {
		return nil, ErrDeviceUnavailable
	}

	session := &CaptureSession{encoding: NegotiateEncoding(device, PreferredEncodings)}

	stream, err := device.Open(ctx, session.encoding, session.append)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	session.stream = stream
	return session, nil
}

func (s *CaptureSession) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	s.bufMu.Lock()
	s.buf.Write(chunk)
	s.bufMu.Unlock()
}

// Encoding returns the negotiated encoding.
func (s *CaptureSession) Encoding() string {
	return s.encoding
}

// Stop finalizes the recording, releases the device and returns the audio.
func (s *CaptureSession) Stop() (CapturedAudio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return CapturedAudio{}, ErrCaptureClosed
	}
	s.closed = true
	defer s.release()

	if err := s.stream.Stop(); err != nil {
		return CapturedAudio{}, fmt.Errorf("stop recording: %w", err)
	}

	s.bufMu.Lock()
	data := append([]byte(nil), s.buf.Bytes()...)
	s.bufMu.Unlock()

	return CapturedAudio{Data: data, Encoding: s.encoding}, nil
}

// Abort discards the recording and releases the device.
func (s *CaptureSession) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrCaptureClosed
	}
	s.closed = true
	defer s.release()

	if err := s.stream.Stop(); err != nil {
		log.Printf("[capture] stop during abort failed: %v", err)
	}
	return nil
}

func (s *CaptureSession) release() {
	if err := s.stream.Release(); err != nil {
		log.Printf("[capture] device release failed: %v", err)
	}
}
