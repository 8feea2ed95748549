package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	StoryAPIURL      string
	StorageBaseURL   string
	StoragePath      string
	FactsPath        string
	Locale           string
	GeoIPDBPath      string
	CORSOrigins      []string
	PollInterval     time.Duration
	FactInterval     time.Duration
	RequestTimeout   time.Duration
	GenerationDelay  time.Duration
	WorkerCount      int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the server
// falls back to in-memory job storage.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             port,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoryAPIURL:      getEnv("STORY_API_URL", fmt.Sprintf("http://localhost:%s", port)),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		FactsPath:        os.Getenv("FACTS_PATH"),
		Locale:           strings.TrimSpace(os.Getenv("STORY_LOCALE")),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:      splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		PollInterval:     getEnvDuration("POLL_INTERVAL", 3*time.Second),
		FactInterval:     getEnvDuration("FACT_ROTATE_INTERVAL", 5500*time.Millisecond),
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
		GenerationDelay:  getEnvDuration("GENERATION_DELAY", 2*time.Second),
		WorkerCount:      getEnvInt("WORKER_COUNT", 2),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if _, err := url.Parse(cfg.StorageBaseURL); err != nil {
		return nil, fmt.Errorf("STORAGE_BASE_URL is invalid: %w", err)
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.GenerationDelay < 0 {
		cfg.GenerationDelay = 0
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
