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
	AppEnv             string
	Port               string
	DatabaseURL        string
	StoragePath        string
	StorageBaseURL     string
	GeoIPDBPath        string
	DefaultLocale      string
	ScraperAPIURL      string
	ScraperAPIToken    string
	ScraperWorkers     []string
	ScraperLogCapacity int
	PageSize           int
	ListLimit          int
	ViewCacheTTL       time.Duration
	ExportMaxEntities  int
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	// TrustProxyHeaders enables X-Forwarded-For / X-Real-IP handling. Only set
	// it behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     strings.TrimRight(getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"), "/"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		ScraperAPIURL:      strings.TrimRight(getEnv("SCRAPER_API_URL", "http://localhost:8000"), "/"),
		ScraperAPIToken:    strings.TrimSpace(os.Getenv("SCRAPER_API_TOKEN")),
		ScraperWorkers:     getEnvList("SCRAPER_WORKERS", []string{"campaign-finance", "legislature"}),
		ScraperLogCapacity: getEnvInt("SCRAPER_LOG_CAPACITY", 500),
		PageSize:           getEnvInt("PAGE_SIZE", 25),
		ListLimit:          getEnvInt("LIST_LIMIT", 50),
		ViewCacheTTL:       time.Minute * time.Duration(getEnvInt("VIEW_CACHE_TTL_MINUTES", 30)),
		ExportMaxEntities:  getEnvInt("EXPORT_MAX_ENTITIES", 250),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustProxyHeaders:  getEnvBool("TRUST_PROXY_HEADERS", false),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("PAGE_SIZE must be positive")
	}
	if cfg.ListLimit <= 0 {
		return nil, fmt.Errorf("LIST_LIMIT must be positive")
	}
	if len(cfg.ScraperWorkers) == 0 {
		return nil, fmt.Errorf("SCRAPER_WORKERS must name at least one worker")
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

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks and duplicates.
func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
