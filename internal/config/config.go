package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by WORD_PROVIDER, SPEECH_PROVIDER and VERDICT_PROVIDER.
const (
	ProviderGemini     = "gemini"
	ProviderArk        = "ark"
	ProviderVolcengine = "volcengine"
)

// Config groups every setting of the proxy and its tools.
type Config struct {
	Server    ServerConfig
	Proxy     ProxyConfig
	Gemini    GeminiConfig
	AI        AIConfig
	Speech    SpeechConfig
	Providers ProviderConfig
	Client    ClientConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	proxy, err := loadProxyConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	providers, err := loadProviderConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Proxy:     proxy,
		Gemini:    loadGeminiConfig(),
		AI:        ai,
		Speech:    speech,
		Providers: providers,
		Client:    client,
	}, nil
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("SERVER_PORT"))
	if port == "" {
		port = strings.TrimSpace(os.Getenv("PORT"))
	}
	if port == "" {
		port = "4000"
	}

	if strings.Contains(port, ":") {
		// ":4000" or "127.0.0.1:4000"
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ProxyConfig tunes the HTTP surface.
type ProxyConfig struct {
	AllowedOrigins    []string
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxBodyBytes      int64
	SpeechCacheSize   int
	SpeechCacheTTL    time.Duration
	FallbackWordsFile string
}

func loadProxyConfig() (ProxyConfig, error) {
	cfg := ProxyConfig{
		AllowedOrigins:    parseListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:      2,
		RateLimitBurst:    10,
		MaxBodyBytes:      25 << 20,
		SpeechCacheSize:   256,
		SpeechCacheTTL:    time.Hour,
		FallbackWordsFile: strings.TrimSpace(os.Getenv("FALLBACK_WORDS_FILE")),
	}

	rps, err := parseOptionalFloatEnv("RATE_LIMIT_RPS")
	if err != nil {
		return ProxyConfig{}, err
	}
	if rps != nil {
		cfg.RateLimitRPS = *rps
	}

	burst, err := parseOptionalIntEnv("RATE_LIMIT_BURST")
	if err != nil {
		return ProxyConfig{}, err
	}
	if burst != nil {
		cfg.RateLimitBurst = *burst
	}

	maxBody, err := parseOptionalIntEnv("MAX_BODY_BYTES")
	if err != nil {
		return ProxyConfig{}, err
	}
	if maxBody != nil && *maxBody > 0 {
		cfg.MaxBodyBytes = int64(*maxBody)
	}

	cacheSize, err := parseOptionalIntEnv("SPEECH_CACHE_SIZE")
	if err != nil {
		return ProxyConfig{}, err
	}
	if cacheSize != nil {
		cfg.SpeechCacheSize = *cacheSize
	}

	ttl, err := parseDurationEnv("SPEECH_CACHE_TTL", cfg.SpeechCacheTTL)
	if err != nil {
		return ProxyConfig{}, err
	}
	cfg.SpeechCacheTTL = ttl

	return cfg, nil
}

// GeminiConfig selects the Gemini models.
type GeminiConfig struct {
	APIKey      string
	TextModel   string
	ImageModel  string
	SpeechModel string
	Voice       string
}

// Enabled reports whether an API key is configured.
func (c GeminiConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadGeminiConfig() GeminiConfig {
	key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if key == "" {
		key = strings.TrimSpace(os.Getenv("API_KEY"))
	}

	return GeminiConfig{
		APIKey:      key,
		TextModel:   getEnvOrDefault("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		ImageModel:  getEnvOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		SpeechModel: getEnvOrDefault("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		Voice:       getEnvOrDefault("GEMINI_TTS_VOICE", "Kore"),
	}
}

// AIConfig describes the Ark chat model used for word generation.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + Model or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SpeechConfig describes the Volcengine speech service.
type SpeechConfig struct {
	AppID          string
	AccessToken    string
	BaseURL        string
	ConcurrentMode bool
	ASRLanguage    string
	TTSVoice       string
	TTSSpeed       float32
	TTSVolume      float32
	TTSFormat      string
	Timeout        int
	Enabled        bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	speed, err := parseOptionalFloat32Env("SPEECH_TTS_SPEED")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsSpeed := float32(0.8)
	if speed != nil {
		ttsSpeed = *speed
	}

	volume, err := parseOptionalFloat32Env("SPEECH_TTS_VOLUME")
	if err != nil {
		return SpeechConfig{}, err
	}
	ttsVolume := float32(1.0)
	if volume != nil {
		ttsVolume = *volume
	}

	concurrent, err := parseBoolEnv("SPEECH_CONCURRENT_MODE", false)
	if err != nil {
		return SpeechConfig{}, err
	}

	appID := strings.TrimSpace(os.Getenv("SPEECH_APP_ID"))
	accessToken := strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN"))
	if accessToken == "" {
		accessToken = strings.TrimSpace(os.Getenv("SPEECH_API_KEY"))
	}

	return SpeechConfig{
		AppID:          appID,
		AccessToken:    accessToken,
		BaseURL:        strings.TrimSpace(os.Getenv("SPEECH_BASE_URL")),
		ConcurrentMode: concurrent,
		ASRLanguage:    getEnvOrDefault("SPEECH_ASR_LANGUAGE", "uk-UA"),
		TTSVoice:       getEnvOrDefault("SPEECH_TTS_VOICE", ""),
		TTSSpeed:       ttsSpeed,
		TTSVolume:      ttsVolume,
		TTSFormat:      getEnvOrDefault("SPEECH_TTS_FORMAT", "mp3"),
		Timeout:        timeoutSeconds,
		Enabled:        appID != "" && accessToken != "",
	}, nil
}

// ProviderConfig picks the implementation behind each capability. Images
// always come from Gemini.
type ProviderConfig struct {
	Word    string
	Speech  string
	Verdict string
}

func loadProviderConfig() (ProviderConfig, error) {
	cfg := ProviderConfig{
		Word:    strings.ToLower(getEnvOrDefault("WORD_PROVIDER", ProviderGemini)),
		Speech:  strings.ToLower(getEnvOrDefault("SPEECH_PROVIDER", ProviderGemini)),
		Verdict: strings.ToLower(getEnvOrDefault("VERDICT_PROVIDER", ProviderGemini)),
	}

	if cfg.Word != ProviderGemini && cfg.Word != ProviderArk {
		return ProviderConfig{}, fmt.Errorf("invalid WORD_PROVIDER value %q", cfg.Word)
	}
	if cfg.Speech != ProviderGemini && cfg.Speech != ProviderVolcengine {
		return ProviderConfig{}, fmt.Errorf("invalid SPEECH_PROVIDER value %q", cfg.Speech)
	}
	if cfg.Verdict != ProviderGemini && cfg.Verdict != ProviderVolcengine {
		return ProviderConfig{}, fmt.Errorf("invalid VERDICT_PROVIDER value %q", cfg.Verdict)
	}
	return cfg, nil
}

// ClientConfig is used by the game client tools.
type ClientConfig struct {
	APIBaseURL string
	HistoryDir string
	Timeout    time.Duration
}

func loadClientConfig() (ClientConfig, error) {
	timeout, err := parseDurationEnv("CLIENT_TIMEOUT", 60*time.Second)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		APIBaseURL: strings.TrimRight(getEnvOrDefault("API_BASE_URL", "http://localhost:4000"), "/"),
		HistoryDir: getEnvOrDefault("HISTORY_DIR", ".chytanka"),
		Timeout:    timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
