package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	OpenAIAPIKey   string
	ReplicateToken string

	LogLevel string
	Debug    bool

	PreferIPv4 bool

	HTTPTimeout      time.Duration
	PollInterval     time.Duration
	OpenAIBaseURL    string
	ReplicateBaseURL string
	ImageModel       string
}

// Load reads configuration from the environment. Both credentials are
// required and checked here, before any prompt is processed or any request
// is sent.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:         strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info"))),
		Debug:            getEnvBool("DEBUG", false),
		PreferIPv4:       getEnvBool("PREFER_IPV4", false),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 300)) * time.Second,
		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_MS", 1500)) * time.Millisecond,
		OpenAIBaseURL:    strings.TrimSpace(getEnv("OPENAI_BASE_URL", "")),
		ReplicateBaseURL: strings.TrimSpace(getEnv("REPLICATE_BASE_URL", "https://api.replicate.com")),
		ImageModel:       strings.TrimSpace(getEnv("IMAGE_MODEL", "gpt-image-1")),
	}

	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.ReplicateToken = strings.TrimSpace(os.Getenv("REPLICATE_API_TOKEN"))

	switch {
	case cfg.OpenAIAPIKey == "":
		return Config{}, errors.New("OPENAI_API_KEY is required")
	case cfg.ReplicateToken == "":
		return Config{}, errors.New("REPLICATE_API_TOKEN is required")
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 300 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
