package speech

// SpeechConfig configures the Volcengine speech clients.
type SpeechConfig struct {
	AppID       string `json:"appId"`
	AccessToken string `json:"accessToken"`
	// BaseURL overrides the websocket host, e.g. "ws://127.0.0.1:9000".
	BaseURL        string `json:"baseUrl"`
	ConcurrentMode bool   `json:"concurrentMode"` // concurrent ASR resource instead of the hourly one

	ASRLanguage string `json:"asrLanguage"`

	TTSVoice  string  `json:"ttsVoice"`
	TTSSpeed  float32 `json:"ttsSpeed"`
	TTSVolume float32 `json:"ttsVolume"`
	TTSFormat string  `json:"ttsFormat"` // mp3 or pcm

	Timeout int `json:"timeout"` // seconds
}
