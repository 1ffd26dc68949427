package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/country-insights/internal/logger"
)

const (
	NewsProviderNewsData = "newsdata"
	NewsProviderRSS      = "rss"

	newsAPIKeyEnv = "NEWS_API_KEY"
)

// Endpoints holds the base URL of every upstream. Empty values fall back to
// each provider's default.
type Endpoints struct {
	Countries string `validate:"omitempty,url"`
	Geocoding string `validate:"omitempty,url"`
	Weather   string `validate:"omitempty,url"`
	News      string `validate:"omitempty,url"`
	RSS       string `validate:"omitempty,url"`
}

type AppConfig struct {
	Port  string `validate:"required,numeric"`
	Debug bool

	HTTPTimeout time.Duration `validate:"gt=0s"`

	UpstreamMaxRetries     int           `validate:"gte=0,lte=10"`
	UpstreamBackoffInitial time.Duration `validate:"gt=0s"`
	UpstreamBackoffMax     time.Duration `validate:"gtefield=UpstreamBackoffInitial"`

	// ProbeInterval controls how often upstreams are probed (0 = disabled).
	ProbeInterval time.Duration `validate:"gte=0s"`

	// Probe store retention.
	ProbeMaxHistory int           `validate:"gte=0"`  // max results per provider (0 = unlimited)
	ProbeMaxAge     time.Duration `validate:"gte=0s"` // max age of results (0 = unlimited)

	NewsProvider string `validate:"oneof=newsdata rss"`
	NewsLanguage string `validate:"omitempty,alpha,len=2"`

	Endpoints Endpoints
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is loaded first if present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.WithError(err).Debug("no .env file loaded")
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.Debug = getenvBool("DEBUG", false)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 2)
	if cfg.UpstreamBackoffInitial, err = getenvDuration("UPSTREAM_BACKOFF_INITIAL", 300*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.UpstreamBackoffMax, err = getenvDuration("UPSTREAM_BACKOFF_MAX", 3*time.Second); err != nil {
		return nil, err
	}

	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	cfg.ProbeMaxHistory = getenvInt("PROBE_MAX_HISTORY", 48) // 4h at the default interval
	if cfg.ProbeMaxAge, err = getenvDuration("PROBE_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.NewsProvider = strings.ToLower(getenvDefault("NEWS_PROVIDER", NewsProviderNewsData))
	cfg.NewsLanguage = strings.ToLower(getenvDefault("NEWS_LANGUAGE", "en"))

	cfg.Endpoints = Endpoints{
		Countries: os.Getenv("COUNTRIES_BASE_URL"),
		Geocoding: os.Getenv("GEOCODING_BASE_URL"),
		Weather:   os.Getenv("WEATHER_BASE_URL"),
		News:      os.Getenv("NEWS_BASE_URL"),
		RSS:       os.Getenv("RSS_BASE_URL"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.NewsProvider == NewsProviderNewsData && NewsAPIKey() == "" {
		logger.Log.Warn(newsAPIKeyEnv + " is not set; news requests will fail")
	}

	return cfg, nil
}

// NewsAPIKey returns the news provider secret. It is read on every call and
// never stored in AppConfig.
func NewsAPIKey() string {
	return strings.TrimSpace(os.Getenv(newsAPIKeyEnv))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
