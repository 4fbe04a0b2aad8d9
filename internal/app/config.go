package app

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the server.
type Config struct {
	Env            string
	UserAgent      string
	RequestTimeout time.Duration

	GitHubToken    string
	GuardianAPIKey string

	StatsCacheTTL   time.Duration
	NewsCacheTTL    time.Duration
	ArticleCacheTTL time.Duration
	ArticleCacheMax int

	// RateLimitCritical is the GitHub quota floor below which commit history
	// is skipped. RequestDelay spaces sequential GitHub calls.
	RateLimitCritical int
	RequestDelay      time.Duration

	// ScrapeInterval is the process-wide minimum gap between article scrapes.
	ScrapeInterval time.Duration
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Env:               "development",
		UserAgent:         "Mozilla/5.0 (compatible; DevfolioBot/1.0)",
		RequestTimeout:    15 * time.Second,
		StatsCacheTTL:     10 * time.Minute,
		NewsCacheTTL:      time.Hour,
		ArticleCacheTTL:   time.Hour,
		ArticleCacheMax:   100,
		RateLimitCritical: 3,
		RequestDelay:      200 * time.Millisecond,
		ScrapeInterval:    time.Second,
	}
}

// ConfigFromEnv layers environment overrides onto the defaults.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	cfg.GuardianAPIKey = os.Getenv("GUARDIAN_API_KEY")

	cfg.RequestTimeout = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.StatsCacheTTL = envDuration("STATS_CACHE_TTL", cfg.StatsCacheTTL)
	cfg.NewsCacheTTL = envDuration("NEWS_CACHE_TTL", cfg.NewsCacheTTL)
	cfg.ArticleCacheTTL = envDuration("ARTICLE_CACHE_TTL", cfg.ArticleCacheTTL)
	cfg.ArticleCacheMax = envInt("ARTICLE_CACHE_MAX", cfg.ArticleCacheMax)
	cfg.RateLimitCritical = envInt("GITHUB_RATE_LIMIT_CRITICAL", cfg.RateLimitCritical)
	cfg.RequestDelay = envDuration("GITHUB_REQUEST_DELAY", cfg.RequestDelay)
	cfg.ScrapeInterval = envDuration("SCRAPE_MIN_INTERVAL", cfg.ScrapeInterval)
	return cfg
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
