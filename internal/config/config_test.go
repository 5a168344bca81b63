package config_test

import (
	"testing"
	"time"

	"github.com/Vovarama1992/voice_exchange/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromEnv(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Port)
	assert.Equal(t, ":10000", cfg.Addr())
	assert.Empty(t, cfg.Chat.APIKey)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.Chat.BaseURL)
	assert.Equal(t, "meta-llama/llama-3-8b-instruct", cfg.Chat.Model)
	assert.Zero(t, cfg.Chat.Timeout)
	assert.Equal(t, 1, cfg.STT.BeamSize)
	assert.Equal(t, 1, cfg.STT.MaxConcurrent)
	assert.Equal(t, "en", cfg.TTS.Lang)
	assert.Equal(t, int64(25<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromEnv(lookupFrom(map[string]string{
		"PORT":                  "8080",
		"OPENROUTER_API_KEY":    "sk-test",
		"CHAT_TIMEOUT":          "15s",
		"STT_MAX_CONCURRENT":    "4",
		"RATE_LIMIT_PER_MINUTE": "30",
		"LOG_LEVEL":             "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sk-test", cfg.Chat.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Chat.Timeout)
	assert.Equal(t, 4, cfg.STT.MaxConcurrent)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]map[string]string{
		"port not a number": {"PORT": "abc"},
		"port out of range": {"PORT": "70000"},
		"beam size zero":    {"STT_BEAM_SIZE": "0"},
		"bad timeout":       {"CHAT_TIMEOUT": "soon"},
		"negative timeout":  {"CHAT_TIMEOUT": "-1s"},
		"bad log level":     {"LOG_LEVEL": "verbose"},
		"negative rate":     {"RATE_LIMIT_PER_MINUTE": "-5"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := config.FromEnv(lookupFrom(env))
			require.Error(t, err)
		})
	}
}
