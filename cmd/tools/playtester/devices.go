package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tosone/minimp3"

	"github.com/zhouzirui/chytanka/backend/internal/game"
)

// fileCapture replays a recording from disk as if it came from a microphone.
type fileCapture struct {
	path     string
	encoding string
	chunk    int
}

func newFileCapture(path string) (*fileCapture, error) {
	encoding, err := encodingForPath(path)
	if err != nil {
		return nil, err
	}
	return &fileCapture{path: path, encoding: encoding, chunk: 4096}, nil
}

func encodingForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg", ".opus":
		return "audio/ogg", nil
	case ".mp3":
		return "audio/mpeg", nil
	}
	return "", fmt.Errorf("unknown recording type %q", filepath.Ext(path))
}

func (f *fileCapture) Supports(encoding string) bool {
	return encoding == f.encoding
}

// Open streams the file to sink in the background. A missing file reads as
// a refused microphone.
func (f *fileCapture) Open(ctx context.Context, encoding string, sink func([]byte)) (game.CaptureStream, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %v", game.ErrPermissionDenied, err)
		}
		return nil, err
	}

	s := &fileStream{done: make(chan struct{})}
	go func() {
		defer close(s.done)
		for i := 0; i < len(data); i += f.chunk {
			end := min(i+f.chunk, len(data))
			sink(data[i:end])
		}
	}()
	return s, nil
}

type fileStream struct {
	done chan struct{}
}

func (s *fileStream) Stop() error {
	<-s.done
	return nil
}

// Release has nothing to free for a file.
func (s *fileStream) Release() error {
	return nil
}

// wavPlayback writes every played buffer to a numbered WAV file in dir.
type wavPlayback struct {
	dir string

	mu    sync.Mutex
	count int
}

func newWAVPlayback(dir string) (*wavPlayback, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &wavPlayback{dir: dir}, nil
}

// DecodeContainer understands WAV and MP3.
func (p *wavPlayback) DecodeContainer(data []byte) (game.Buffer, error) {
	if bytes.HasPrefix(data, []byte("RIFF")) {
		return decodeWAV(data)
	}
	if looksLikeMP3(data) {
		return decodeMP3(data)
	}
	return game.Buffer{}, fmt.Errorf("unrecognized container")
}

func (p *wavPlayback) Play(ctx context.Context, buf game.Buffer) error {
	p.mu.Lock()
	p.count++
	name := filepath.Join(p.dir, fmt.Sprintf("%s-%02d.wav", time.Now().Format("150405"), p.count))
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(name, encodeWAV(buf), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	fmt.Printf("  played %.2fs -> %s\n", buf.Duration(), name)
	return nil
}

func looksLikeMP3(data []byte) bool {
	if bytes.HasPrefix(data, []byte("ID3")) {
		return true
	}
	// frame sync
	return len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

func decodeMP3(data []byte) (game.Buffer, error) {
	dec, pcm, err := minimp3.DecodeFull(data)
	if err != nil {
		return game.Buffer{}, fmt.Errorf("decode mp3: %w", err)
	}
	if len(pcm) == 0 || dec.SampleRate == 0 {
		return game.Buffer{}, fmt.Errorf("decode mp3: no frames")
	}

	buf, err := game.DecodePCM16(pcm, dec.SampleRate)
	if err != nil {
		return game.Buffer{}, err
	}
	buf.Channels = max(dec.Channels, 1)
	return buf, nil
}

// decodeWAV reads 16-bit PCM WAV data.
func decodeWAV(data []byte) (game.Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return game.Buffer{}, fmt.Errorf("not a wav file")
	}

	var (
		channels, bits uint16
		rate           uint32
		haveFormat     bool
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]
		if size > len(body) {
			size = len(body)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return game.Buffer{}, fmt.Errorf("wav fmt chunk too short")
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != 1 {
				return game.Buffer{}, fmt.Errorf("unsupported wav format %d", format)
			}
			channels = binary.LittleEndian.Uint16(body[2:4])
			rate = binary.LittleEndian.Uint32(body[4:8])
			bits = binary.LittleEndian.Uint16(body[14:16])
			haveFormat = true
		case "data":
			if !haveFormat {
				return game.Buffer{}, fmt.Errorf("wav data before fmt chunk")
			}
			if bits != 16 {
				return game.Buffer{}, fmt.Errorf("unsupported wav bit depth %d", bits)
			}
			buf, err := game.DecodePCM16(body, int(rate))
			if err != nil {
				return game.Buffer{}, err
			}
			buf.Channels = max(int(channels), 1)
			return buf, nil
		}

		pos += 8 + size + size%2
	}
	return game.Buffer{}, fmt.Errorf("wav has no data chunk")
}

// encodeWAV renders buf as 16-bit PCM WAV.
func encodeWAV(buf game.Buffer) []byte {
	channels := max(buf.Channels, 1)
	dataSize := len(buf.Samples) * 2

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+dataSize))
	out.WriteString("WAVEfmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16))
	binary.Write(&out, binary.LittleEndian, uint16(1))
	binary.Write(&out, binary.LittleEndian, uint16(channels))
	binary.Write(&out, binary.LittleEndian, uint32(buf.SampleRate))
	binary.Write(&out, binary.LittleEndian, uint32(buf.SampleRate*channels*2))
	binary.Write(&out, binary.LittleEndian, uint16(channels*2))
	binary.Write(&out, binary.LittleEndian, uint16(16))
	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, uint32(dataSize))

	for _, s := range buf.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.Write(&out, binary.LittleEndian, int16(math.Round(v*32767)))
	}
	return out.Bytes()
}
