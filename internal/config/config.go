// Package config loads process settings from the environment once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort         = 10000
	defaultChatBaseURL  = "https://openrouter.ai/api/v1"
	defaultChatModel    = "meta-llama/llama-3-8b-instruct"
	defaultSTTURL       = "http://127.0.0.1:8000/v1/audio/transcriptions"
	defaultSTTModel     = "tiny.en"
	defaultSTTBeamSize  = 1
	defaultLanguage     = "en"
	defaultTTSURL       = "https://translate.google.com/translate_tts"
	defaultLogLevel     = "info"
	defaultMaxUploadMiB = 25
)

type Config struct {
	Port    int
	TempDir string

	Chat ChatConfig
	STT  STTConfig
	TTS  TTSConfig

	RateLimitPerMinute int
	MaxUploadBytes     int64
	LogLevel           string
}

type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout of zero means the outbound call is not bounded.
	Timeout time.Duration
}

type STTConfig struct {
	URL       string
	HealthURL string
	Model     string
	// BeamSize is kept at 1 to cap CPU and memory per inference at some cost in accuracy.
	BeamSize      int
	Language      string
	MaxConcurrent int
}

type TTSConfig struct {
	URL  string
	Lang string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		TempDir: get("TEMP_DIR", ""),
		Chat: ChatConfig{
			APIKey:  get("OPENROUTER_API_KEY", ""),
			BaseURL: get("CHAT_BASE_URL", defaultChatBaseURL),
			Model:   get("CHAT_MODEL", defaultChatModel),
		},
		STT: STTConfig{
			URL:       get("STT_URL", defaultSTTURL),
			HealthURL: get("STT_HEALTH_URL", ""),
			Model:     get("STT_MODEL", defaultSTTModel),
			Language:  get("STT_LANGUAGE", defaultLanguage),
		},
		TTS: TTSConfig{
			URL:  get("TTS_URL", defaultTTSURL),
			Lang: get("TTS_LANG", defaultLanguage),
		},
		LogLevel: get("LOG_LEVEL", defaultLogLevel),
	}

	var err error
	if cfg.Port, err = intVar(get, "PORT", defaultPort); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.STT.BeamSize, err = intVar(get, "STT_BEAM_SIZE", defaultSTTBeamSize); err != nil {
		return nil, err
	}
	if cfg.STT.BeamSize < 1 {
		return nil, fmt.Errorf("STT_BEAM_SIZE must be at least 1, got %d", cfg.STT.BeamSize)
	}
	if cfg.STT.MaxConcurrent, err = intVar(get, "STT_MAX_CONCURRENT", 1); err != nil {
		return nil, err
	}
	if cfg.STT.MaxConcurrent < 1 {
		return nil, fmt.Errorf("STT_MAX_CONCURRENT must be at least 1, got %d", cfg.STT.MaxConcurrent)
	}
	if cfg.RateLimitPerMinute, err = intVar(get, "RATE_LIMIT_PER_MINUTE", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute < 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE cannot be negative, got %d", cfg.RateLimitPerMinute)
	}

	maxMiB, err := intVar(get, "MAX_UPLOAD_MB", defaultMaxUploadMiB)
	if err != nil {
		return nil, err
	}
	if maxMiB < 1 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be at least 1, got %d", maxMiB)
	}
	cfg.MaxUploadBytes = int64(maxMiB) << 20

	if raw := get("CHAT_TIMEOUT", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CHAT_TIMEOUT %q: %w", raw, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("CHAT_TIMEOUT cannot be negative, got %s", d)
		}
		cfg.Chat.Timeout = d
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of [debug, info, warn, error], got %q", cfg.LogLevel)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func intVar(get func(string, string) string, key string, def int) (int, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
