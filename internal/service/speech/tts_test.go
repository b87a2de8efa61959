package speech

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"

	speechmodel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
)

func TestResolveTTSResourceCandidates(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		want  []string
	}{
		{name: "default voice", voice: "", want: []string{"volc.service_type.10029", "seed-tts-2.0"}},
		{name: "mega clone voice", voice: "S_clone_speaker", want: []string{"volc.megatts.default"}},
		{name: "bigtts voice", voice: "multi_female_shuangkuaisisi_moon_bigtts", want: []string{"seed-tts-2.0", "volc.service_type.10029"}},
		{name: "legacy voice", voice: "BV001_streaming", want: []string{"volc.service_type.10029", "seed-tts-2.0"}},
	}

	for _, tt := range tests {
		got := resolveTTSResourceCandidates(tt.voice)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: resolveTTSResourceCandidates(%q) = %v, want %v", tt.name, tt.voice, got, tt.want)
		}
	}
}

func TestResolveTTSSpeakerCandidates(t *testing.T) {
	got := resolveTTSSpeakerCandidates(" custom_voice ", "CUSTOM_VOICE")
	want := []string{"custom_voice", defaultSpeaker}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}

	got = resolveTTSSpeakerCandidates("default", "")
	if !reflect.DeepEqual(got, []string{defaultSpeaker}) {
		t.Fatalf("default alias candidates = %v", got)
	}
}

func TestResolveTTSFormat(t *testing.T) {
	cases := map[[2]string]string{
		{"pcm", "mp3"}: "pcm",
		{"wav", ""}:    "mp3",
		{"", "PCM"}:    "pcm",
		{"ogg", ""}:    "mp3",
	}
	for in, want := range cases {
		if got := resolveTTSFormat(in[0], in[1]); got != want {
			t.Errorf("resolveTTSFormat(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestBuildTTSRequestUsesConfigDefaults(t *testing.T) {
	client := NewTTSClient(&speechmodel.SpeechConfig{TTSSpeed: 0.8, TTSVolume: 1.0, Timeout: 5})
	payload, sessionID := client.buildTTSRequest(&speechmodel.TTSRequest{Text: "кіт"}, "voice", "mp3")

	if sessionID == "" || payload.User.UID != sessionID {
		t.Fatalf("session id not generated: %q / %q", sessionID, payload.User.UID)
	}
	params := payload.ReqParams.AudioParams
	if params.SampleRate != TTSSampleRate || params.Format != "mp3" {
		t.Fatalf("audio params = %+v", params)
	}
	if params.SpeedRatio != 0.8 {
		t.Fatalf("speed ratio = %v, want 0.8", params.SpeedRatio)
	}
	if params.VolumeRatio != 0 {
		t.Fatalf("unit volume should be omitted, got %v", params.VolumeRatio)
	}
}

func TestTTSSynthesizeCollectsAudio(t *testing.T) {
	fake, srv := newFakeSpeechServer(t)
	fake.ttsAudio = []byte("ID3-fake-mp3-frames")

	client := NewTTSClient(fake.config(srv))
	resp, err := client.Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "кіт"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if !bytes.Equal(resp.AudioData, fake.ttsAudio) {
		t.Fatalf("audio = %q, want %q", resp.AudioData, fake.ttsAudio)
	}
	if resp.Format != "mp3" || resp.RequestID != "req-1" || resp.Duration != 640 {
		t.Fatalf("unexpected response %+v", resp)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.ttsBody.ReqParams.Text != "кіт" || fake.ttsBody.ReqParams.Speaker != defaultSpeaker {
		t.Fatalf("server saw %+v", fake.ttsBody.ReqParams)
	}
}

func TestTTSFallsBackOnResourceMismatch(t *testing.T) {
	fake, srv := newFakeSpeechServer(t)
	fake.ttsAudio = []byte("pcm-bytes")
	fake.rejectResource = "seed-tts-2.0"

	client := NewTTSClient(fake.config(srv))
	if _, err := client.Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "кіт"}); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	want := []string{"seed-tts-2.0", "volc.service_type.10029"}
	if !reflect.DeepEqual(fake.resources, want) {
		t.Fatalf("resources tried = %v, want %v", fake.resources, want)
	}
}

func TestTTSRequiresCredentialsAndText(t *testing.T) {
	client := NewTTSClient(&speechmodel.SpeechConfig{})
	if _, err := client.Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "кіт"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := client.Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "  "}); err == nil {
		t.Fatalf("expected empty text error")
	}
}
