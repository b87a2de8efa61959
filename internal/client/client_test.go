package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zhouzirui/chytanka/backend/internal/config"
	"github.com/zhouzirui/chytanka/backend/internal/handler"
	"github.com/zhouzirui/chytanka/backend/internal/model/word"
	"github.com/zhouzirui/chytanka/backend/internal/service/content"
)

type fakeProviders struct {
	wordErr  error
	excluded []string
	image    content.Image
	speech   content.Speech
	verdict  bool
	audio    []byte
	mime     string
}

func (f *fakeProviders) GenerateWord(ctx context.Context, excluded []string) (word.Wire, error) {
	f.excluded = excluded
	if f.wordErr != nil {
		return word.Wire{}, f.wordErr
	}
	return word.Wire{CleanWord: "Мила кішка", Syllables: "Ми-ла кі-шка", ImagePrompt: "cute cat"}, nil
}

func (f *fakeProviders) GenerateImage(ctx context.Context, prompt string) (content.Image, error) {
	return f.image, nil
}

func (f *fakeProviders) Synthesize(ctx context.Context, text string) (content.Speech, error) {
	return f.speech, nil
}

func (f *fakeProviders) Judge(ctx context.Context, target string, audio []byte, mimeType string) (bool, error) {
	f.audio = audio
	f.mime = mimeType
	return f.verdict, nil
}

func newProxy(t *testing.T) (*Client, *fakeProviders) {
	t.Helper()
	fake := &fakeProviders{
		image:   content.Image{Data: []byte("png"), MIMEType: "image/png"},
		speech:  content.Speech{Data: []byte{1, 0, 2, 0}, Format: "pcm"},
		verdict: true,
	}
	svc := content.NewService(content.Providers{
		Words:  fake,
		Images: fake,
		Speech: fake,
		Judge:  fake,
	}, word.NewMemoryPool(word.Seed()), content.Options{})

	srv := httptest.NewServer(handler.NewRouter(config.ProxyConfig{MaxBodyBytes: 1 << 20}, svc))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", 5*time.Second), fake
}

func TestFetchWord(t *testing.T) {
	c, fake := newProxy(t)

	challenge, err := c.FetchWord(context.Background(), []string{"кіт"})
	if err != nil {
		t.Fatalf("FetchWord returned error: %v", err)
	}
	if challenge.NormalizedWord != "Мила кішка" || len(challenge.DisplayForm) != 2 || challenge.DisplayForm[1] != "кі-шка" {
		t.Fatalf("challenge = %+v", challenge)
	}
	if len(fake.excluded) != 1 || fake.excluded[0] != "кіт" {
		t.Fatalf("exclusions = %v", fake.excluded)
	}
}

func TestFetchWordFallback(t *testing.T) {
	c, fake := newProxy(t)
	fake.wordErr = errors.New("model offline")

	challenge, err := c.FetchWord(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchWord returned error: %v", err)
	}
	if challenge.NormalizedWord == "" || len(challenge.DisplayForm) == 0 {
		t.Fatalf("fallback challenge unusable: %+v", challenge)
	}
}

func TestFetchIllustrationAndSpeech(t *testing.T) {
	c, _ := newProxy(t)

	img, err := c.FetchIllustration(context.Background(), "cute cat")
	if err != nil {
		t.Fatalf("FetchIllustration returned error: %v", err)
	}
	if img.DataURL != "data:image/png;base64,cG5n" {
		t.Fatalf("data url = %q", img.DataURL)
	}

	speech, err := c.FetchSpeech(context.Background(), "кіт")
	if err != nil {
		t.Fatalf("FetchSpeech returned error: %v", err)
	}
	if !bytes.Equal(speech.Data, []byte{1, 0, 2, 0}) || speech.Format != "pcm" {
		t.Fatalf("speech = %+v", speech)
	}
}

func TestFetchVerdict(t *testing.T) {
	c, fake := newProxy(t)
	audio := []byte("webm-bytes")

	ok, err := c.FetchVerdict(context.Background(), "кіт", audio, "audio/webm;codecs=opus")
	if err != nil {
		t.Fatalf("FetchVerdict returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected correct verdict")
	}
	if !bytes.Equal(fake.audio, audio) || fake.mime != "audio/webm;codecs=opus" {
		t.Fatalf("judge saw %q as %q", fake.audio, fake.mime)
	}
}

func TestErrorStatus(t *testing.T) {
	c, _ := newProxy(t)

	_, err := c.FetchIllustration(context.Background(), " ")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(srv.URL, 20*time.Millisecond)
	if _, err := c.FetchSpeech(context.Background(), "кіт"); err == nil {
		t.Fatalf("expected timeout error")
	}
}
