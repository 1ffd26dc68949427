package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DEBUG", "HTTP_TIMEOUT", "UPSTREAM_MAX_RETRIES",
		"UPSTREAM_BACKOFF_INITIAL", "UPSTREAM_BACKOFF_MAX", "PROBE_INTERVAL",
		"PROBE_MAX_HISTORY", "PROBE_MAX_AGE", "NEWS_PROVIDER", "NEWS_LANGUAGE",
		"NEWS_API_KEY", "COUNTRIES_BASE_URL", "GEOCODING_BASE_URL",
		"WEATHER_BASE_URL", "NEWS_BASE_URL", "RSS_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.UpstreamMaxRetries)
	assert.Equal(t, 300*time.Millisecond, cfg.UpstreamBackoffInitial)
	assert.Equal(t, 3*time.Second, cfg.UpstreamBackoffMax)
	assert.Equal(t, 5*time.Minute, cfg.ProbeInterval)
	assert.Equal(t, 48, cfg.ProbeMaxHistory)
	assert.Equal(t, 24*time.Hour, cfg.ProbeMaxAge)
	assert.Equal(t, NewsProviderNewsData, cfg.NewsProvider)
	assert.Equal(t, "en", cfg.NewsLanguage)
	assert.Equal(t, Endpoints{}, cfg.Endpoints)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("PROBE_INTERVAL", "0")
	t.Setenv("NEWS_PROVIDER", "RSS")
	t.Setenv("NEWS_LANGUAGE", "DE")
	t.Setenv("COUNTRIES_BASE_URL", "http://localhost:9999/v3.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Zero(t, cfg.ProbeInterval)
	assert.Equal(t, NewsProviderRSS, cfg.NewsProvider)
	assert.Equal(t, "de", cfg.NewsLanguage)
	assert.Equal(t, "http://localhost:9999/v3.1", cfg.Endpoints.Countries)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad duration":      {"HTTP_TIMEOUT", "soon"},
		"zero timeout":      {"HTTP_TIMEOUT", "0s"},
		"unknown provider":  {"NEWS_PROVIDER", "twitter"},
		"bad base url":      {"WEATHER_BASE_URL", "not a url"},
		"non numeric port":  {"PORT", "http"},
		"backoff inversion": {"UPSTREAM_BACKOFF_MAX", "1ms"},
	}

	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNewsAPIKeyIsReadAtCallTime(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "")
	assert.Empty(t, NewsAPIKey())

	t.Setenv("NEWS_API_KEY", "  secret  ")
	assert.Equal(t, "secret", NewsAPIKey())
}
