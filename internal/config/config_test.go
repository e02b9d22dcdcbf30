package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"NATS_URL", "NATS_RESPOND_SUBJECT", "NATS_MENU_SUBJECT", "NATS_TIMEOUT",
	"HTTP_ADDR", "HTTP_RATE_LIMIT", "HTTP_RATE_BURST",
	"REDIS_URL", "STATS_TTL",
	"CHAT_MODE", "CHAT_TABLE_PATH", "CHAT_TYPING_DELAY", "CHAT_MUTED", "SESSION_IDLE_TTL",
	"TTS_API_KEY", "TTS_VOICE_ID", "TTS_OUTPUT_DIR",
	"LOG_LEVEL", "LOG_FILE", "SERVICE_NAME",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NatsURL)
	assert.Equal(t, "chat.respond", cfg.NatsRespondSubject)
	assert.Equal(t, "chat.menu", cfg.NatsMenuSubject)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "keyword", cfg.ChatMode)
	assert.Equal(t, 500*time.Millisecond, cfg.ChatTypingDelay)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.False(t, cfg.ChatMuted)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, "portfolio-chat", cfg.ServiceName)
	assert.False(t, cfg.NarrationEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_MODE", "menu")
	t.Setenv("CHAT_TYPING_DELAY", "0s")
	t.Setenv("CHAT_MUTED", "true")
	t.Setenv("HTTP_RATE_LIMIT", "2.5")
	t.Setenv("HTTP_RATE_BURST", "3")
	t.Setenv("TTS_API_KEY", "key")
	t.Setenv("TTS_VOICE_ID", "voice")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "menu", cfg.ChatMode)
	assert.Equal(t, time.Duration(0), cfg.ChatTypingDelay)
	assert.True(t, cfg.ChatMuted)
	assert.Equal(t, 2.5, cfg.HTTPRateLimit)
	assert.Equal(t, 3, cfg.HTTPRateBurst)
	assert.True(t, cfg.NarrationEnabled())
}

func TestLoad_EmptyValueDisablesTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("NATS_URL", "")
	t.Setenv("HTTP_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.NatsURL)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("NATS_TIMEOUT", "soon")
	t.Setenv("HTTP_RATE_BURST", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.NatsTimeout)
	assert.Equal(t, 10, cfg.HTTPRateBurst)
}

func TestLoad_InvalidMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAT_MODE", "llm")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAT_MODE")
}
