package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/avvvet/portfolio-chat/internal/models"
)

type Config struct {
	// NATS configuration
	NatsURL            string
	NatsRespondSubject string
	NatsMenuSubject    string
	NatsTimeout        time.Duration

	// HTTP configuration
	HTTPAddr      string
	HTTPRateLimit float64
	HTTPRateBurst int

	// Redis configuration (lookup stats)
	RedisURL string
	StatsTTL time.Duration

	// Chat configuration
	ChatMode        string
	ChatTablePath   string
	ChatTypingDelay time.Duration
	ChatMuted       bool
	SessionIdleTTL  time.Duration

	// Text-to-speech configuration
	TTSAPIKey    string
	TTSVoiceID   string
	TTSOutputDir string

	// Logging configuration
	LogLevel string
	LogFile  string

	// Service configuration
	ServiceName string
}

func Load() (*Config, error) {
	cfg := &Config{
		// NATS settings
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsRespondSubject: getEnv("NATS_RESPOND_SUBJECT", "chat.respond"),
		NatsMenuSubject:    getEnv("NATS_MENU_SUBJECT", "chat.menu"),
		NatsTimeout:        getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// HTTP settings
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		HTTPRateLimit: getFloatEnv("HTTP_RATE_LIMIT", 5),
		HTTPRateBurst: getIntEnv("HTTP_RATE_BURST", 10),

		// Redis settings
		RedisURL: getEnv("REDIS_URL", ""),
		StatsTTL: getDurationEnv("STATS_TTL", 30*24*time.Hour),

		// Chat settings
		ChatMode:        getEnv("CHAT_MODE", models.ModeKeyword),
		ChatTablePath:   getEnv("CHAT_TABLE_PATH", ""),
		ChatTypingDelay: getDurationEnv("CHAT_TYPING_DELAY", 500*time.Millisecond),
		ChatMuted:       getBoolEnv("CHAT_MUTED", false),
		SessionIdleTTL:  getDurationEnv("SESSION_IDLE_TTL", 30*time.Minute),

		// TTS settings
		TTSAPIKey:    getEnv("TTS_API_KEY", ""),
		TTSVoiceID:   getEnv("TTS_VOICE_ID", ""),
		TTSOutputDir: getEnv("TTS_OUTPUT_DIR", "./storage/audio"),

		// Logging settings
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "portfolio-chat"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.ChatMode {
	case models.ModeKeyword, models.ModeMenu:
	default:
		return fmt.Errorf("CHAT_MODE must be %q or %q, got %q", models.ModeKeyword, models.ModeMenu, c.ChatMode)
	}
	if c.ChatTypingDelay < 0 {
		return fmt.Errorf("CHAT_TYPING_DELAY must not be negative")
	}
	if c.HTTPRateLimit <= 0 || c.HTTPRateBurst <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT and HTTP_RATE_BURST must be positive")
	}
	return nil
}

// NarrationEnabled reports whether a TTS backend is configured.
func (c *Config) NarrationEnabled() bool {
	return c.TTSAPIKey != "" && c.TTSVoiceID != ""
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
