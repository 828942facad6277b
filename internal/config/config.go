package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultHandbookURL is the page the catalog is scraped from.
const DefaultHandbookURL = "https://www.swinburne.edu.au/course/undergraduate/bachelor-of-computer-science/handbook"

// Config holds all application configuration.
type Config struct {
	ServerPort     string
	GinMode        string
	LogLevel       string
	LogFormat      string
	DatabaseDriver string
	DatabaseURL    string
	MaxDBConns     int32
	// RedisURL enables the lookup cache and the distributed sync lock.
	// Empty disables both.
	RedisURL      string
	CacheTTL      time.Duration
	JWTSecret     string
	JWTExpiry     time.Duration
	HandbookURL   string
	ScrapeTimeout time.Duration
	// SyncInterval is the period of the background sync worker; zero disables it.
	SyncInterval    time.Duration
	SyncTimeout     time.Duration
	RateLimitPerMin int
	AllowedOrigins  []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "pretty"),
		DatabaseDriver:  strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:     getEnv("DATABASE_URL", "handbook.db"),
		MaxDBConns:      int32(getEnvInt("MAX_DB_CONNS", 16)),
		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTL:        time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		JWTSecret:       getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:       time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
		HandbookURL:     getEnv("HANDBOOK_URL", DefaultHandbookURL),
		ScrapeTimeout:   time.Duration(getEnvInt("SCRAPE_TIMEOUT_SECONDS", 30)) * time.Second,
		SyncInterval:    time.Duration(getEnvInt("SYNC_INTERVAL_MINUTES", 0)) * time.Minute,
		SyncTimeout:     time.Duration(getEnvInt("SYNC_TIMEOUT_SECONDS", 120)) * time.Second,
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
