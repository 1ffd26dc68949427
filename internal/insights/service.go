package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/country-insights/internal/logger"
	"github.com/i474232898/country-insights/internal/metrics"
)

// Service orchestrates the upstream providers into the public API shapes.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	countries CountryProvider
	geocoder  Geocoder
	weather   WeatherProvider
	news      NewsProvider

	store   ProbeStore
	probers []Prober
}

// NewService creates a new Service. Providers that implement Prober are
// registered for periodic probing.
func NewService(store ProbeStore, countries CountryProvider, geocoder Geocoder, weather WeatherProvider, news NewsProvider) *Service {
	s := &Service{
		countries: countries,
		geocoder:  geocoder,
		weather:   weather,
		news:      news,
		store:     store,
	}

	for _, p := range []any{countries, geocoder, weather, news} {
		if pr, ok := p.(Prober); ok {
			s.probers = append(s.probers, pr)
		}
	}
	return s
}

// Search returns at most MaxSearchResults ranked summaries. Queries shorter
// than MinQueryLength return an empty slice without an upstream call.
func (s *Service) Search(ctx context.Context, query string) ([]CountrySummary, error) {
	if !IsSearchable(query) {
		return []CountrySummary{}, nil
	}

	q := NormalizeQuery(query)
	found, err := s.countries.SearchByName(ctx, q)
	if err != nil {
		logger.Log.WithFields(logger.Fields{"query": q}).WithError(err).Error("country search failed")
		return nil, err
	}

	return RankSummaries(q, found), nil
}

// CountryDetail builds the aggregated detail for an ISO code. Stages run in
// strict sequence; the first failure terminates the request:
//
//	country metadata -> capital coordinates -> weather history
//
// It returns ErrNotFound for unknown countries and *DependencyFailure when a
// later stage fails.
func (s *Service) CountryDetail(ctx context.Context, code string) (CountryDetail, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	log := logger.Log.WithField("code", code)

	detail, err := s.countries.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.ObserveAggregation("not_found")
			return CountryDetail{}, ErrNotFound
		}
		log.WithError(err).WithField("stage", StageCountry).Error("country lookup failed")
		metrics.ObserveAggregation(string(StageCountry))
		return CountryDetail{}, &DependencyFailure{Stage: StageCountry, Err: err}
	}

	if len(detail.Capitals) == 0 || strings.TrimSpace(detail.Capitals[0]) == "" {
		return CountryDetail{}, s.stageFailed(log, StageCapitalCoordinates, fmt.Errorf("%s has no capital: %w", code, ErrNoResult))
	}

	coords, err := s.geocoder.ResolveCapital(ctx, detail.Capitals[0])
	if err != nil {
		return CountryDetail{}, s.stageFailed(log, StageCapitalCoordinates, err)
	}

	snapshot, err := s.weather.FetchHistory(ctx, coords)
	if err != nil {
		return CountryDetail{}, s.stageFailed(log, StageWeather, err)
	}

	detail.Weather = snapshot
	metrics.ObserveAggregation("success")
	return detail, nil
}

func (s *Service) stageFailed(log *logger.Entry, stage Stage, err error) error {
	log.WithError(err).WithField("stage", stage).Error("country aggregation failed")
	metrics.ObserveAggregation(string(stage))
	return &DependencyFailure{Stage: stage, Err: err}
}

// News returns one page of articles for q.Term. Provider failures are
// returned as errors, never as an empty page.
func (s *Service) News(ctx context.Context, q NewsQuery) (NewsPage, error) {
	q.Term = strings.TrimSpace(q.Term)
	q.Country = strings.ToLower(strings.TrimSpace(q.Country))
	q.Cursor = strings.TrimSpace(q.Cursor)

	page, err := s.news.FetchPage(ctx, q)
	if err != nil {
		logger.Log.WithFields(logger.Fields{"term": q.Term, "cursor": q.Cursor}).WithError(err).Error("news fetch failed")
		return NewsPage{}, err
	}
	if page.Articles == nil {
		page.Articles = []NewsArticle{}
	}
	if page.NextCursor != nil && *page.NextCursor == "" {
		page.NextCursor = nil
	}
	return page, nil
}

// Probers lists the providers that support reachability probes.
func (s *Service) Probers() []Prober {
	return s.probers
}

// ProbeAndStore runs one probe and saves its result.
func (s *Service) ProbeAndStore(ctx context.Context, p Prober) ProbeResult {
	start := time.Now()
	err := p.Probe(ctx)

	result := ProbeResult{
		Provider:  p.Name(),
		Healthy:   err == nil,
		Latency:   time.Since(start),
		CheckedAt: start.UTC(),
	}
	if err != nil {
		result.Error = err.Error()
		logger.Log.WithField("provider", p.Name()).WithError(err).Warn("upstream probe failed")
	}

	metrics.ObserveProbe(result.Provider, result.Healthy)
	s.store.SaveProbe(result)
	return result
}

// UpstreamStatus returns the latest probe result of every probed provider.
func (s *Service) UpstreamStatus() map[string]ProbeResult {
	status := make(map[string]ProbeResult)
	for _, name := range s.store.Providers() {
		if r, err := s.store.Latest(name); err == nil {
			status[name] = r
		}
	}
	return status
}

// ProbeHistory delegates to the underlying store.
func (s *Service) ProbeHistory(provider string) ([]ProbeResult, error) {
	return s.store.History(provider)
}
