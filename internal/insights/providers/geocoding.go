package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/country-insights/internal/insights"
)

const DefaultGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1"

// OpenMeteoGeocoder implements insights.Geocoder with the Open-Meteo
// geocoding API.
type OpenMeteoGeocoder struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoGeocoder(client *http.Client, baseURL string, backoff BackoffConfig) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingBaseURL
	}
	return &OpenMeteoGeocoder{
		name:    "openmeteo-geocoding",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: newHTTPConfig(client, backoff),
		circuit: newCircuitBreaker("openmeteo-geocoding"),
	}
}

func (p *OpenMeteoGeocoder) Name() string {
	return p.name
}

type geocodingResponse struct {
	Results []struct {
		Name      string   `json:"name"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Country   string   `json:"country"`
		Timezone  string   `json:"timezone"`
	} `json:"results"`
}

// ResolveCapital returns the coordinates and timezone of the first match for name.
// No match, or a first match without both coordinates, is insights.ErrNoResult.
func (p *OpenMeteoGeocoder) ResolveCapital(ctx context.Context, name string) (insights.Coordinates, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return insights.Coordinates{}, insights.ErrNoResult
	}

	var payload geocodingResponse
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(p.searchURL(name)), &payload); err != nil {
		return insights.Coordinates{}, upstreamError(p.name, err)
	}

	if len(payload.Results) == 0 {
		return insights.Coordinates{}, fmt.Errorf("no geocoding match for %q: %w", name, insights.ErrNoResult)
	}
	first := payload.Results[0]
	if first.Latitude == nil || first.Longitude == nil {
		return insights.Coordinates{}, fmt.Errorf("geocoding match for %q has no coordinates: %w", name, insights.ErrNoResult)
	}

	return insights.Coordinates{
		Latitude:  *first.Latitude,
		Longitude: *first.Longitude,
		Timezone:  first.Timezone,
	}, nil
}

// Probe resolves a well-known city.
func (p *OpenMeteoGeocoder) Probe(ctx context.Context) error {
	_, err := p.ResolveCapital(ctx, "Berlin")
	return err
}

func (p *OpenMeteoGeocoder) searchURL(name string) string {
	values := url.Values{}
	values.Set("name", name)
	values.Set("count", "1")
	return fmt.Sprintf("%s/search?%s", p.baseURL, values.Encode())
}
