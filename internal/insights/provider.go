package insights

import (
	"context"
)

// CountryProvider abstracts the country metadata source (e.g. REST Countries).
type CountryProvider interface {
	// SearchByName returns unranked matches for an already normalized query.
	// A query the provider does not know yields an empty slice and no error.
	SearchByName(ctx context.Context, query string) ([]CountrySummary, error)
	// GetByCode returns ErrNotFound for unknown codes. Weather is left zero.
	GetByCode(ctx context.Context, code string) (CountryDetail, error)
}

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	ResolveCapital(ctx context.Context, name string) (Coordinates, error)
}

// WeatherProvider fetches the recent hourly history at a location.
type WeatherProvider interface {
	FetchHistory(ctx context.Context, at Coordinates) (WeatherSnapshot, error)
}

// NewsProvider fetches one page of news articles in provider order.
type NewsProvider interface {
	FetchPage(ctx context.Context, q NewsQuery) (NewsPage, error)
}

// Prober is implemented by providers that support a cheap reachability check.
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// ProbeStore is the contract the in-memory probe store must satisfy.
type ProbeStore interface {
	SaveProbe(result ProbeResult)
	Latest(provider string) (ProbeResult, error)
	History(provider string) ([]ProbeResult, error)
	Providers() []string
}
