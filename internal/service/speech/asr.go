package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	speechmodel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
)

const (
	asrPath = "/api/v3/sauc/bigmodel_nostream"

	asrDurationResource   = "volc.bigasr.sauc.duration"
	asrConcurrentResource = "volc.bigasr.sauc.concurrent"

	// 16 kHz, 16 bit, mono, 200 ms
	asrChunkSize     = 6400
	asrChunkInterval = 200 * time.Millisecond
)

// ErrUnsupportedFormat is returned for recordings the recognizer cannot
// decode, such as webm.
var ErrUnsupportedFormat = content.ErrUnsupportedAudio

// ASRClient transcribes complete recordings over the streaming-input API.
type ASRClient struct {
	config        *speechmodel.SpeechConfig
	dialer        *retryDialer
	chunkInterval time.Duration
}

type asrServerMessage struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Result   struct {
		Text       string `json:"text"`
		Utterances []struct {
			Text string `json:"text"`
		} `json:"utterances,omitempty"`
	} `json:"result,omitempty"`
	AudioInfo struct {
		Duration int64 `json:"duration"`
	} `json:"audio_info,omitempty"`
}

type asrRequestPayload struct {
	User struct {
		UID string `json:"uid,omitempty"`
	} `json:"user,omitempty"`
	Audio struct {
		Language string `json:"language,omitempty"`
		Format   string `json:"format"`
		Codec    string `json:"codec,omitempty"`
		Rate     int    `json:"rate,omitempty"`
		Bits     int    `json:"bits,omitempty"`
		Channel  int    `json:"channel,omitempty"`
	} `json:"audio"`
	Request struct {
		ModelName      string `json:"model_name"`
		EnableITN      bool   `json:"enable_itn,omitempty"`
		EnablePunc     bool   `json:"enable_punc,omitempty"`
		ShowUtterances bool   `json:"show_utterances,omitempty"`
		ResultType     string `json:"result_type,omitempty"`
		EndWindowSize  int    `json:"end_window_size,omitempty"`
	} `json:"request"`
}

// NewASRClient returns a client for cfg.
func NewASRClient(cfg *speechmodel.SpeechConfig) *ASRClient {
	return &ASRClient{
		config:        cfg,
		dialer:        newRetryDialer(time.Duration(cfg.Timeout) * time.Second),
		chunkInterval: asrChunkInterval,
	}
}

// AudioFormat maps a recording MIME type to the recognizer's format and
// codec names.
func AudioFormat(mimeType string) (format, codec string, err error) {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}

	switch base {
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return "wav", "raw", nil
	case "audio/ogg", "audio/opus":
		return "ogg", "opus", nil
	case "audio/mpeg", "audio/mp3":
		return "mp3", "raw", nil
	case "audio/pcm", "audio/l16":
		return "pcm", "raw", nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, mimeType)
}

// Transcribe sends req.Audio and returns the final transcript.
func (c *ASRClient) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("no audio data to send")
	}

	appID, token, err := resolveCredentials(c.config)
	if err != nil {
		return nil, err
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	resourceID := asrDurationResource
	if c.config.ConcurrentMode {
		resourceID = asrConcurrentResource
	}

	header := http.Header{}
	header.Set("X-Api-App-Key", appID)
	header.Set("X-Api-Access-Key", token)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", sessionID)

	conn, err := c.dialer.dial(ctx, endpoint(c.config, asrPath), header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ASR websocket: %w", err)
	}
	defer conn.Close()

	data, err := json.Marshal(c.buildASRRequest(req, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ASR request: %w", err)
	}
	compressed, err := CompressPayload(data, GzipCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to compress payload: %w", err)
	}
	frame, err := EncodeMessage(CreateFullClientRequest(compressed, GzipCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("failed to send ASR request: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, func() { conn.Close() })
	defer stop()

	var result *speechmodel.ASRResponse
	g.Go(func() error {
		if err := c.sendAudio(gctx, conn, req.Audio); err != nil {
			return fmt.Errorf("failed to send audio data: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		resp, err := c.receive(conn, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		result = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *ASRClient) buildASRRequest(req *speechmodel.ASRRequest, sessionID string) *asrRequestPayload {
	payload := &asrRequestPayload{}
	payload.User.UID = sessionID

	payload.Audio.Format = req.Format
	if payload.Audio.Format == "" {
		payload.Audio.Format = "wav"
	}
	payload.Audio.Codec = req.Codec
	if payload.Audio.Codec == "" {
		payload.Audio.Codec = "raw"
	}
	payload.Audio.Language = req.Language
	if payload.Audio.Language == "" {
		payload.Audio.Language = c.config.ASRLanguage
	}
	payload.Audio.Rate = req.Rate
	if payload.Audio.Rate <= 0 {
		payload.Audio.Rate = 16000
	}
	payload.Audio.Bits = 16
	payload.Audio.Channel = 1

	payload.Request.ModelName = "bigmodel"
	payload.Request.EnableITN = true
	payload.Request.EnablePunc = true
	payload.Request.ShowUtterances = true
	payload.Request.ResultType = "full"
	payload.Request.EndWindowSize = 800
	return payload
}

// sendAudio streams audio in 200 ms packets. The full client request holds
// sequence 1, so audio starts at 2.
func (c *ASRClient) sendAudio(ctx context.Context, conn *websocket.Conn, audio []byte) error {
	sequence := int32(2)

	for i := 0; i < len(audio); i += asrChunkSize {
		end := min(i+asrChunkSize, len(audio))
		isLast := end >= len(audio)

		chunk, err := CompressPayload(audio[i:end], GzipCompression)
		if err != nil {
			return fmt.Errorf("failed to compress audio chunk: %w", err)
		}
		frame, err := EncodeMessage(CreateAudioOnlyRequest(chunk, sequence, isLast, GzipCompression))
		if err != nil {
			return fmt.Errorf("failed to encode audio message: %w", err)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return fmt.Errorf("failed to send audio chunk: %w", err)
		}
		sequence++

		if isLast {
			break
		}
		if c.chunkInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.chunkInterval):
			}
		}
	}
	return nil
}

func (c *ASRClient) receive(conn *websocket.Conn, sessionID string) (*speechmodel.ASRResponse, error) {
	var (
		text     string
		duration int64
	)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read ASR response: %w", err)
		}

		msg, err := DecodeMessage(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ASR message: %w", err)
		}

		switch msg.Header.MessageType {
		case ErrorMessage:
			body, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("asr error message decode failed: %w", err)
			}
			return nil, fmt.Errorf("asr error %d: %s", msg.ErrorCode, string(body))

		case FullServerResponse:
			body, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("failed to decompress ASR payload: %w", err)
			}

			var serverResp asrServerMessage
			if err := json.Unmarshal(body, &serverResp); err != nil {
				log.Printf("[ASR] failed to unmarshal response: %v", err)
				continue
			}
			if serverResp.Code != 0 && serverResp.Code != 20000000 {
				return nil, fmt.Errorf("asr api error %d: %s", serverResp.Code, serverResp.Message)
			}

			candidate := serverResp.Result.Text
			if candidate == "" {
				parts := make([]string, 0, len(serverResp.Result.Utterances))
				for _, u := range serverResp.Result.Utterances {
					parts = append(parts, u.Text)
				}
				candidate = strings.Join(parts, " ")
			}
			if strings.TrimSpace(candidate) != "" {
				text = candidate
			}
			if serverResp.AudioInfo.Duration > 0 {
				duration = serverResp.AudioInfo.Duration
			}

			if msg.IsLastPacket() || serverResp.Sequence < 0 {
				if text == "" {
					log.Printf("[ASR] empty transcript for session %s", sessionID)
				}
				return &speechmodel.ASRResponse{
					SessionID: sessionID,
					Text:      text,
					Duration:  duration,
					RequestID: sessionID,
					CreatedAt: time.Now(),
				}, nil
			}
		}
	}
}
