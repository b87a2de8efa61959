// Package client talks to the content proxy on behalf of the game.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zhouzirui/chytanka/backend/internal/game"
	"github.com/zhouzirui/chytanka/backend/internal/model/word"
)

// ErrStatus is wrapped by errors for non-2xx proxy responses.
var ErrStatus = errors.New("proxy returned an error status")

// Client implements game.ContentProvider over the proxy HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the proxy at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchWord implements game.ContentProvider.
func (c *Client) FetchWord(ctx context.Context, excluded []string) (word.Challenge, error) {
	if excluded == nil {
		excluded = []string{}
	}

	var wire word.Wire
	if err := c.post(ctx, "/api/word", map[string]interface{}{"excludedWords": excluded}, &wire); err != nil {
		return word.Challenge{}, err
	}
	return word.FromWire(wire)
}

// FetchIllustration implements game.ContentProvider.
func (c *Client) FetchIllustration(ctx context.Context, prompt string) (game.Illustration, error) {
	var resp struct {
		ImageData string `json:"imageData"`
	}
	if err := c.post(ctx, "/api/image", map[string]string{"prompt": prompt}, &resp); err != nil {
		return game.Illustration{}, err
	}
	if !strings.HasPrefix(resp.ImageData, "data:") {
		return game.Illustration{}, fmt.Errorf("proxy returned no image data")
	}
	return game.Illustration{DataURL: resp.ImageData}, nil
}

// FetchSpeech implements game.ContentProvider.
func (c *Client) FetchSpeech(ctx context.Context, text string) (game.SpeechAudio, error) {
	var resp struct {
		Audio  string `json:"audio"`
		Format string `json:"format"`
	}
	if err := c.post(ctx, "/api/tts", map[string]string{"text": text}, &resp); err != nil {
		return game.SpeechAudio{}, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return game.SpeechAudio{}, fmt.Errorf("decode speech audio: %w", err)
	}
	return game.SpeechAudio{Data: data, Format: resp.Format}, nil
}

// FetchVerdict implements game.ContentProvider.
func (c *Client) FetchVerdict(ctx context.Context, target string, audio []byte, encoding string) (bool, error) {
	var resp struct {
		Correct bool `json:"correct"`
	}
	body := map[string]string{
		"targetWord":  target,
		"audioBase64": base64.StdEncoding.EncodeToString(audio),
		"mimeType":    encoding,
	}
	if err := c.post(ctx, "/api/pronunciation", body, &resp); err != nil {
		return false, err
	}
	return resp.Correct, nil
}

func (c *Client) post(ctx context.Context, path string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("%w: %s %d: %s", ErrStatus, path, resp.StatusCode, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

var _ game.ContentProvider = (*Client)(nil)
