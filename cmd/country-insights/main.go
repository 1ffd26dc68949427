package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	httpapi "github.com/i474232898/country-insights/internal/api/http"
	"github.com/i474232898/country-insights/internal/config"
	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/insights/providers"
	"github.com/i474232898/country-insights/internal/logger"
	"github.com/i474232898/country-insights/internal/scheduler"
	"github.com/i474232898/country-insights/internal/store"
)

func main() {
	logger.Init(false)

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load config")
	}
	logger.Init(cfg.Debug)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	backoff := providers.BackoffConfig{
		MaxRetries:      cfg.UpstreamMaxRetries,
		InitialInterval: cfg.UpstreamBackoffInitial,
		MaxInterval:     cfg.UpstreamBackoffMax,
	}

	// Providers with resilience (backoff + circuit breaker).
	countries := providers.NewRestCountries(httpClient, cfg.Endpoints.Countries, backoff)
	geocoder := providers.NewOpenMeteoGeocoder(httpClient, cfg.Endpoints.Geocoding, backoff)
	weather := providers.NewOpenMeteoWeather(httpClient, cfg.Endpoints.Weather, backoff)

	var news insights.NewsProvider
	switch cfg.NewsProvider {
	case config.NewsProviderRSS:
		news = providers.NewGoogleNewsRSS(httpClient, cfg.Endpoints.RSS, cfg.NewsLanguage, backoff)
	default:
		news = providers.NewNewsData(httpClient, cfg.Endpoints.News, config.NewsAPIKey, cfg.NewsLanguage, backoff)
	}

	// In-memory probe store with configured retention.
	memStore := store.NewMemoryStore(cfg.ProbeMaxHistory, cfg.ProbeMaxAge)

	// Core service orchestrating providers and store.
	service := insights.NewService(memStore, countries, geocoder, weather, news)

	// Scheduler that periodically probes upstreams.
	sched := scheduler.New(cfg.ProbeInterval, service)
	if err := sched.Start(); err != nil {
		logger.Log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := httpapi.NewApp(service)

	// Start server with graceful shutdown
	go func() {
		logger.Log.WithFields(logger.Fields{
			"port":          cfg.Port,
			"news_provider": cfg.NewsProvider,
		}).Info("server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("error during shutdown")
	}
}
