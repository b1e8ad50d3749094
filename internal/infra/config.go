package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	Port            string
	DatabaseURL     string
	PublicBaseURL   string
	StoragePath     string
	DefaultLocale   string
	GeoIPDBPath     string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	MetaAppID       string
	MetaAppSecret   string
	MetaRedirectURI string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string

	SchedulerTick       time.Duration
	SchedulerStuckAfter time.Duration
	PublishTimeout      time.Duration
	GenerationTimeout   time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoragePath:     getEnv("STORAGE_PATH", "./data/media"),
		DefaultLocale:   getEnv("DEFAULT_LOCALE", "en"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		MetaAppID:       os.Getenv("META_APP_ID"),
		MetaAppSecret:   os.Getenv("META_APP_SECRET"),
		MetaRedirectURI: getEnv("META_REDIRECT_URI", "http://localhost:8080/oauth/meta/callback"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8501"}),

		SchedulerTick:       time.Second * time.Duration(getEnvInt("SCHEDULER_TICK_SECONDS", 1)),
		SchedulerStuckAfter: time.Minute * time.Duration(getEnvInt("SCHEDULER_STUCK_TIMEOUT_MINUTES", 15)),
		PublishTimeout:      time.Second * time.Duration(getEnvInt("PUBLISH_TIMEOUT_SECONDS", 120)),
		GenerationTimeout:   time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 180)),
	}

	cfg.PublicBaseURL = strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+cfg.Port), "/")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
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

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
