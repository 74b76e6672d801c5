// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Host            string
	Port            string
	Debug           bool
	GroqAPIKey      string
	GroqBaseURL     string
	Model           string // chat and vision completions
	WhisperModel    string
	TTSModel        string
	TTSVoice        string
	RequestTimeout  time.Duration
	ConversationTTL time.Duration // 0 disables eviction
	AudioDir        string
	AudioTTL        time.Duration // 0 keeps speech files forever
	TempDir         string
	RateLimit       RateLimitConfig
	TranscriptLog   TranscriptLogConfig
}

// RateLimitConfig controls per-client request throttling.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// TranscriptLogConfig controls NDJSON conversation transcript logging.
type TranscriptLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_LOG_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8000"),
		Debug:           getEnvBool("DEBUG", true),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:           getEnv("GROQ_MODEL", "llama-3.2-90b-vision-preview"),
		WhisperModel:    getEnv("GROQ_WHISPER_MODEL", "whisper-large-v3"),
		TTSModel:        getEnv("GROQ_TTS_MODEL", "playai-tts"),
		TTSVoice:        getEnv("GROQ_TTS_VOICE", "Fritz-PlayAI"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		ConversationTTL: getEnvDuration("CONVERSATION_TTL", 60*time.Minute),
		AudioDir:        getEnv("AUDIO_DIR", "./audio_files"),
		AudioTTL:        getEnvDuration("AUDIO_TTL", 24*time.Hour),
		TempDir:         getEnv("TEMP_DIR", "./temp"),
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 30),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		TranscriptLog: TranscriptLogConfig{
			Enabled:   getEnvBool("TRANSCRIPT_LOG_ENABLED", true),
			Dir:       getEnv("TRANSCRIPT_LOG_DIR", "./data/transcripts"),
			QueueSize: queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY must be set")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.GroqBaseURL == "" {
		return fmt.Errorf("GROQ_BASE_URL cannot be empty")
	}
	if c.Model == "" {
		return fmt.Errorf("GROQ_MODEL cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.ConversationTTL < 0 {
		return fmt.Errorf("CONVERSATION_TTL cannot be negative")
	}
	if c.AudioTTL < 0 {
		return fmt.Errorf("AUDIO_TTL cannot be negative")
	}
	if c.RateLimit.Requests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.TranscriptLog.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_LOG_DIR cannot be empty")
	}
	if c.TranscriptLog.QueueSize <= 0 {
		return fmt.Errorf("TRANSCRIPT_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
