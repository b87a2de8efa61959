package speech

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	speechmodel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
)

// fakeSpeechServer speaks the binary protocol for both endpoints.
type fakeSpeechServer struct {
	t *testing.T

	ttsAudio       []byte
	rejectResource string
	transcript     string

	mu        sync.Mutex
	resources []string
	ttsBody   ttsRequestPayload
	asrBody   asrRequestPayload
	received  []byte
}

func newFakeSpeechServer(t *testing.T) (*fakeSpeechServer, *httptest.Server) {
	f := &fakeSpeechServer{t: t}
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc(ttsPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		f.serveTTS(conn, r.Header.Get("X-Api-Resource-Id"))
	})
	mux.HandleFunc(asrPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		f.serveASR(conn)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSpeechServer) config(srv *httptest.Server) *speechmodel.SpeechConfig {
	return &speechmodel.SpeechConfig{
		AppID:       "app",
		AccessToken: "token",
		BaseURL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		ASRLanguage: "uk-UA",
		TTSFormat:   "mp3",
		TTSSpeed:    0.8,
		Timeout:     5,
	}
}

func (f *fakeSpeechServer) read(conn *websocket.Conn) *Message {
	_, raw, err := conn.ReadMessage()
	if err != nil {
		f.t.Errorf("server read: %v", err)
		return nil
	}
	msg, err := DecodeMessage(bytes.NewReader(raw))
	if err != nil {
		f.t.Errorf("server decode: %v", err)
		return nil
	}
	return msg
}

func (f *fakeSpeechServer) write(conn *websocket.Conn, msg *Message) {
	msg.PayloadSize = uint32(len(msg.Payload))
	data, _ := EncodeMessage(msg)
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		f.t.Errorf("server write: %v", err)
	}
}

func (f *fakeSpeechServer) serveTTS(conn *websocket.Conn, resource string) {
	f.mu.Lock()
	f.resources = append(f.resources, resource)
	f.mu.Unlock()

	msg := f.read(conn)
	if msg == nil {
		return
	}
	f.mu.Lock()
	_ = json.Unmarshal(msg.Payload, &f.ttsBody)
	f.mu.Unlock()

	if resource == f.rejectResource {
		f.write(conn, &Message{
			Header:    NewHeader(ErrorMessage, NoSequenceNumber, JSONSerialization, NoCompression),
			ErrorCode: 45000000,
			Payload:   []byte("resource ID is mismatched with speaker related resource"),
		})
		return
	}

	half := len(f.ttsAudio) / 2
	f.write(conn, &Message{
		Header:  NewHeader(AudioOnlyServerResponse, NoSequenceNumber, NoSerialization, NoCompression),
		Payload: f.ttsAudio[:half],
	})
	f.write(conn, &Message{
		Header:  NewHeader(AudioOnlyServerResponse, NoSequenceNumber, NoSerialization, NoCompression),
		Payload: f.ttsAudio[half:],
	})
	f.write(conn, &Message{
		Header:    NewHeader(FullServerResponse, WithEvent, JSONSerialization, NoCompression),
		EventType: EventTypeSessionFinished,
		SessionID: "session",
		Payload:   []byte(`{"reqid":"req-1","code":3000,"addition":{"duration":"640"}}`),
	})
}

func (f *fakeSpeechServer) serveASR(conn *websocket.Conn) {
	msg := f.read(conn)
	if msg == nil {
		return
	}
	body, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
	if err != nil {
		f.t.Errorf("decompress request: %v", err)
		return
	}
	f.mu.Lock()
	_ = json.Unmarshal(body, &f.asrBody)
	f.mu.Unlock()

	var audio bytes.Buffer
	for {
		msg := f.read(conn)
		if msg == nil {
			return
		}
		chunk, err := DecompressPayload(msg.Payload, msg.Header.CompressionMethod)
		if err != nil {
			f.t.Errorf("decompress audio: %v", err)
			return
		}
		audio.Write(chunk)
		if msg.IsLastPacket() {
			break
		}
	}
	f.mu.Lock()
	f.received = audio.Bytes()
	f.mu.Unlock()

	result, _ := json.Marshal(map[string]any{
		"code":       20000000,
		"result":     map[string]any{"text": f.transcript},
		"audio_info": map[string]any{"duration": 1200},
	})
	compressed, _ := CompressPayload(result, GzipCompression)
	f.write(conn, &Message{
		Header:   NewHeader(FullServerResponse, NegativeSequenceNumber, JSONSerialization, GzipCompression),
		Sequence: -3,
		Payload:  compressed,
	})
}
