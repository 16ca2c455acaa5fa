package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	GeminiAPIKey     string
	GeminiBaseURL    string
	ImageModel       string
	EditModel        string
	VideoModel       string
	VideoResolution  string
	PollInterval     time.Duration
	MaxPolls         int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	GeoIPDBPath      string
	DefaultLocale    string
	JobTTL           time.Duration
	BlobTTL          time.Duration
	MetricsNamespace string
}

// LoadDotEnv reads .env files when present. Variables already set in the
// process environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		GeminiAPIKey:     strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:    os.Getenv("GEMINI_BASE_URL"),
		ImageModel:       getEnv("IMAGE_MODEL", "imagen-4.0-generate-001"),
		EditModel:        getEnv("EDIT_MODEL", "gemini-2.5-flash-image"),
		VideoModel:       getEnv("VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		VideoResolution:  getEnv("VIDEO_RESOLUTION", "720p"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		MaxPolls:         getEnvInt("MAX_POLLS", 0),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		JobTTL:           time.Minute * time.Duration(getEnvInt("JOB_TTL_MINUTES", 120)),
		BlobTTL:          time.Minute * time.Duration(getEnvInt("BLOB_TTL_MINUTES", 60)),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "genstudio"),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.MaxPolls < 0 {
		return nil, fmt.Errorf("MAX_POLLS must not be negative")
	}
	if cfg.JobTTL <= 0 || cfg.BlobTTL <= 0 {
		return nil, fmt.Errorf("JOB_TTL_MINUTES and BLOB_TTL_MINUTES must be positive")
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("PORT must be numeric: %w", err)
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
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
