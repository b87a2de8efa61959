package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	speechmodel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
)

const (
	ttsPath = "/api/v3/tts/unidirectional/stream"
	// TTSSampleRate matches the rate the game plays raw PCM at.
	TTSSampleRate = 24000
)

// ErrEmptyAudio is returned when the service finished without audio.
var ErrEmptyAudio = errors.New("tts returned no audio")

// TTSClient synthesizes speech over the unidirectional streaming API.
type TTSClient struct {
	config *speechmodel.SpeechConfig
	dialer *retryDialer
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
	Addition struct {
		Duration string `json:"duration,omitempty"`
	} `json:"addition,omitempty"`
}

type ttsRequestPayload struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string         `json:"speaker"`
		Text        string         `json:"text"`
		AudioParams ttsAudioParams `json:"audio_params"`
	} `json:"req_params"`
}

type ttsAudioParams struct {
	Format      string  `json:"format"`
	SampleRate  int     `json:"sample_rate"`
	SpeedRatio  float32 `json:"speed_ratio,omitempty"`
	VolumeRatio float32 `json:"volume_ratio,omitempty"`
}

// NewTTSClient returns a client for cfg.
func NewTTSClient(cfg *speechmodel.SpeechConfig) *TTSClient {
	return &TTSClient{
		config: cfg,
		dialer: newRetryDialer(time.Duration(cfg.Timeout) * time.Second),
	}
}

// Synthesize speaks req.Text. When a speaker does not fit a resource id the
// next resource, then the next speaker, is tried.
func (c *TTSClient) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("tts text is empty")
	}

	appKey, accessKey, err := resolveCredentials(c.config)
	if err != nil {
		return nil, err
	}

	encoding := resolveTTSFormat(req.Format, c.config.TTSFormat)
	speakers := resolveTTSSpeakerCandidates(req.Voice, c.config.TTSVoice)
	var lastMismatch error

	for speakerIdx, speaker := range speakers {
		for resourceIdx, resourceID := range resolveTTSResourceCandidates(speaker) {
			resp, err := c.synthesizeWithResource(ctx, req, appKey, accessKey, speaker, encoding, resourceID)
			if err == nil {
				if resourceIdx > 0 || speakerIdx > 0 {
					log.Printf("[TTS] voice %s succeeded with fallback resource %s", speaker, resourceID)
				}
				return resp, nil
			}
			if !isResourceMismatchError(err) {
				return nil, err
			}
			log.Printf("[TTS] voice %s resource %s mismatch: %v", speaker, resourceID, err)
			lastMismatch = err
		}
	}

	if lastMismatch != nil {
		return nil, lastMismatch
	}
	return nil, fmt.Errorf("tts synthesis failed: no compatible resource for voices %v", speakers)
}

func (c *TTSClient) synthesizeWithResource(
	ctx context.Context,
	req *speechmodel.TTSRequest,
	appKey, accessKey, speaker, encoding, resourceID string,
) (*speechmodel.TTSResponse, error) {
	connectID := uuid.New().String()

	header := http.Header{}
	header.Set("X-Api-App-Key", appKey)
	header.Set("X-Api-Access-Key", accessKey)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, err := c.dialer.dial(ctx, endpoint(c.config, ttsPath), header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS websocket: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	payload, sessionID := c.buildTTSRequest(req, speaker, encoding)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	frame, err := EncodeMessage(CreateFullClientRequest(data, NoCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("failed to send TTS request: %w", err)
	}

	var (
		audio    bytes.Buffer
		reqID    string
		duration int64
	)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("failed to read TTS response: %w", err)
		}

		msg, err := DecodeMessage(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode TTS message: %w", err)
		}

		switch msg.Header.MessageType {
		case ErrorMessage:
			body, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("tts error message decode failed: %w", err)
			}
			return nil, fmt.Errorf("tts error %d: %s", msg.ErrorCode, string(body))

		case AudioOnlyServerResponse:
			chunk, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("failed to decompress audio chunk: %w", err)
			}
			audio.Write(chunk)

		case FullServerResponse:
			body, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
			if err != nil {
				return nil, fmt.Errorf("failed to decompress TTS payload: %w", err)
			}

			var serverResp ttsServerMessage
			if len(body) > 0 {
				if err := json.Unmarshal(body, &serverResp); err != nil {
					log.Printf("[TTS] failed to unmarshal response payload: %v", err)
				} else {
					if serverResp.Code != 0 && serverResp.Code != 3000 {
						return nil, fmt.Errorf("tts api error %d: %s", serverResp.Code, serverResp.Message)
					}
					if serverResp.ReqID != "" {
						reqID = serverResp.ReqID
					}
					if serverResp.Addition.Duration != "" {
						if parsed, err := strconv.ParseInt(serverResp.Addition.Duration, 10, 64); err == nil {
							duration = parsed
						}
					}
					if serverResp.Data != "" {
						chunk, err := base64.StdEncoding.DecodeString(serverResp.Data)
						if err != nil {
							return nil, fmt.Errorf("failed to decode base64 audio chunk: %w", err)
						}
						audio.Write(chunk)
					}
				}
			}

			finished := msg.Header.MessageFlags == WithEvent && msg.EventType == EventTypeSessionFinished
			if finished || msg.IsLastPacket() || serverResp.Sequence < 0 {
				if audio.Len() == 0 {
					return nil, ErrEmptyAudio
				}
				if reqID == "" {
					reqID = connectID
				}
				return &speechmodel.TTSResponse{
					SessionID: sessionID,
					AudioData: audio.Bytes(),
					Duration:  duration,
					Format:    encoding,
					RequestID: reqID,
					CreatedAt: time.Now(),
				}, nil
			}

		default:
			log.Printf("[TTS] unexpected message type: %d", msg.Header.MessageType)
		}
	}
}

func (c *TTSClient) buildTTSRequest(req *speechmodel.TTSRequest, speaker, encoding string) (*ttsRequestPayload, string) {
	payload := &ttsRequestPayload{}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	payload.User.UID = sessionID

	payload.ReqParams.Speaker = speaker
	payload.ReqParams.Text = req.Text
	payload.ReqParams.AudioParams.Format = encoding

	payload.ReqParams.AudioParams.SampleRate = req.SampleRate
	if payload.ReqParams.AudioParams.SampleRate <= 0 {
		payload.ReqParams.AudioParams.SampleRate = TTSSampleRate
	}

	speed := req.Speed
	if speed <= 0 {
		speed = c.config.TTSSpeed
	}
	if speed > 0 && speed != 1.0 {
		payload.ReqParams.AudioParams.SpeedRatio = speed
	}

	volume := req.Volume
	if volume <= 0 {
		volume = c.config.TTSVolume
	}
	if volume > 0 && volume != 1.0 {
		payload.ReqParams.AudioParams.VolumeRatio = volume
	}

	return payload, sessionID
}

// resolveTTSFormat keeps the formats the game can decode. wav is served as
// mp3 because the stream API does not produce it.
func resolveTTSFormat(requested, fallback string) string {
	for _, f := range []string{requested, fallback} {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pcm":
			return "pcm"
		case "mp3", "wav":
			return "mp3"
		}
	}
	return "mp3"
}

func resolveTTSResourceCandidates(voice string) []string {
	const (
		defaultResource = "volc.service_type.10029"
		megaResource    = "volc.megatts.default"
		seedResource    = "seed-tts-2.0"
	)

	voice = strings.TrimSpace(voice)
	if voice == "" {
		return []string{defaultResource, seedResource}
	}
	if strings.HasPrefix(voice, "S_") {
		return []string{megaResource}
	}

	normalized := strings.ToLower(voice)
	seedHints := []string{"bigtts", "seed", "megatts", "uranus", "venus", "jupiter", "saturn", "neptune", "mercury", "pluto", "mars"}
	for _, hint := range seedHints {
		if strings.Contains(normalized, hint) {
			return []string{seedResource, defaultResource}
		}
	}

	return []string{defaultResource, seedResource}
}

// defaultSpeaker is a multilingual voice that reads Cyrillic text.
const defaultSpeaker = "multi_female_shuangkuaisisi_moon_bigtts"

func resolveTTSSpeakerCandidates(requested, fallback string) []string {
	var candidates []string

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "default") {
			return
		}
		for _, existing := range candidates {
			if strings.EqualFold(existing, s) {
				return
			}
		}
		candidates = append(candidates, s)
	}

	add(requested)
	add(fallback)
	add(defaultSpeaker)
	return candidates
}

func isResourceMismatchError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "resource ID is mismatched with speaker related resource")
}
