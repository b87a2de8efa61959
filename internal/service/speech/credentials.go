package speech

import (
	"errors"
	"strings"

	speechmodel "github.com/zhouzirui/chytanka/backend/internal/model/speech"
)

// ErrNotConfigured is returned when the Volcengine credentials are missing.
var ErrNotConfigured = errors.New("volcengine speech credentials are not configured")

// resolveCredentials returns the trimmed app id and access token.
func resolveCredentials(cfg *speechmodel.SpeechConfig) (string, string, error) {
	if cfg == nil {
		return "", "", ErrNotConfigured
	}

	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if appID == "" || token == "" {
		return "", "", ErrNotConfigured
	}
	return appID, token, nil
}

// endpoint joins the configured base URL, or the public host, with path.
func endpoint(cfg *speechmodel.SpeechConfig, path string) string {
	base := "wss://openspeech.bytedance.com"
	if cfg != nil && strings.TrimSpace(cfg.BaseURL) != "" {
		base = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	}
	return base + path
}
