package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the process needs, resolved once at startup.
// Missing required values are a startup failure, never a first-request surprise.
type Config struct {
	GeminiAPIKey string
	QdrantURL    string
	QdrantAPIKey string
	DatabaseURL  string
	APIKey       string // static shared secret expected in X-API-Key

	ContentDir   string
	HTTPPort     string
	LogLevel     string
	WatchContent bool
}

// Load reads a .env file if present, then resolves the environment.
// It returns an error naming the first missing required variable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ContentDir:   getEnv("CONTENT_DIR", "./docs"),
		HTTPPort:     getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		WatchContent: getEnv("WATCH_CONTENT", "") == "true",
	}

	var err error
	if cfg.GeminiAPIKey, err = requireEnv("GEMINI_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.QdrantURL, err = requireEnv("QDRANT_URL"); err != nil {
		return nil, err
	}
	if cfg.QdrantAPIKey, err = requireEnv("QDRANT_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL, err = requireEnv("DATABASE_URL"); err != nil {
		return nil, err
	}
	if cfg.APIKey, err = requireEnv("API_KEY"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// QdrantEndpoint translates QDRANT_URL into the host/port/TLS triple the gRPC
// client wants. Qdrant Cloud serves gRPC on 6334 behind TLS.
func (c *Config) QdrantEndpoint() (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(c.QdrantURL)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid QDRANT_URL %q: %w", c.QdrantURL, err)
	}
	host = u.Hostname()
	if host == "" {
		// Bare host[:port] without a scheme.
		host = c.QdrantURL
	}
	useTLS = u.Scheme != "http"

	port = 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port in QDRANT_URL %q: %w", c.QdrantURL, err)
		}
	}
	return host, port, useTLS, nil
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %q is not set", key)
	}
	return value, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
