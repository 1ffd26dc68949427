package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/country-insights/internal/insights"
)

const (
	DefaultCountriesBaseURL = "https://restcountries.com/v3.1"

	detailFields = "name,capital,continents,currencies,languages,flag,population"
)

// RestCountries implements insights.CountryProvider for the REST Countries API.
type RestCountries struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewRestCountries(client *http.Client, baseURL string, backoff BackoffConfig) *RestCountries {
	if baseURL == "" {
		baseURL = DefaultCountriesBaseURL
	}
	return &RestCountries{
		name:    "restcountries",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: newHTTPConfig(client, backoff),
		circuit: newCircuitBreaker("restcountries"),
	}
}

func (p *RestCountries) Name() string {
	return p.name
}

type rcCurrency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type rcCountry struct {
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	CCA2       string                `json:"cca2"`
	Flag       string                `json:"flag"`
	Population int64                 `json:"population"`
	Capital    []string              `json:"capital"`
	Continents []string              `json:"continents"`
	Currencies map[string]rcCurrency `json:"currencies"`
	Languages  map[string]string     `json:"languages"`
	Region     string                `json:"region"`
	Subregion  string                `json:"subregion"`
	Area       float64               `json:"area"`
}

// SearchByName queries /name/{query}. An unknown name yields an empty slice.
func (p *RestCountries) SearchByName(ctx context.Context, query string) ([]insights.CountrySummary, error) {
	u := fmt.Sprintf("%s/name/%s", p.baseURL, url.PathEscape(query))

	var payload []rcCountry
	err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(u), &payload)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return []insights.CountrySummary{}, nil
		}
		return nil, upstreamError(p.name, err)
	}

	out := make([]insights.CountrySummary, 0, len(payload))
	for _, c := range payload {
		out = append(out, toSummary(c))
	}
	return out, nil
}

// GetByCode queries /alpha/{CODE}. The provider answers with an object for
// most codes and an array for some; both are accepted.
func (p *RestCountries) GetByCode(ctx context.Context, code string) (insights.CountryDetail, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return insights.CountryDetail{}, insights.ErrNotFound
	}

	values := url.Values{}
	values.Set("fields", detailFields)
	u := fmt.Sprintf("%s/alpha/%s?%s", p.baseURL, url.PathEscape(code), values.Encode())

	var raw json.RawMessage
	err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(u), &raw)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return insights.CountryDetail{}, insights.ErrNotFound
		}
		return insights.CountryDetail{}, upstreamError(p.name, err)
	}

	c, err := decodeSingleCountry(raw)
	if err != nil {
		return insights.CountryDetail{}, err
	}
	return toDetail(c), nil
}

// Probe fetches a single small record.
func (p *RestCountries) Probe(ctx context.Context) error {
	u := fmt.Sprintf("%s/alpha/DE?fields=cca2", p.baseURL)
	var raw json.RawMessage
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(u), &raw); err != nil {
		return upstreamError(p.name, err)
	}
	return nil
}

func decodeSingleCountry(raw json.RawMessage) (rcCountry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return rcCountry{}, insights.ErrNotFound
	}

	var c rcCountry
	if raw[0] == '[' {
		var list []rcCountry
		if err := json.Unmarshal(raw, &list); err != nil {
			return rcCountry{}, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(list) == 0 {
			return rcCountry{}, insights.ErrNotFound
		}
		c = list[0]
	} else if err := json.Unmarshal(raw, &c); err != nil {
		return rcCountry{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if strings.TrimSpace(c.Name.Common) == "" {
		return rcCountry{}, insights.ErrNotFound
	}
	return c, nil
}

func toSummary(c rcCountry) insights.CountrySummary {
	s := insights.CountrySummary{
		Code:        strings.ToLower(c.CCA2),
		DisplayName: c.Name.Common,
		Flag:        c.Flag,
		Population:  c.Population,
		Languages:   make([]string, 0, len(c.Languages)),
		Currencies:  make([]string, 0, len(c.Currencies)),
		Region:      c.Region,
		Subregion:   c.Subregion,
		AreaKm2:     c.Area,
	}
	if len(c.Capital) > 0 {
		capital := c.Capital[0]
		s.Capital = &capital
	}

	for _, lang := range c.Languages {
		s.Languages = append(s.Languages, lang)
	}
	sort.Strings(s.Languages)

	for code := range c.Currencies {
		s.Currencies = append(s.Currencies, code)
	}
	sort.Strings(s.Currencies)

	return s
}

func toDetail(c rcCountry) insights.CountryDetail {
	d := insights.CountryDetail{
		Name: insights.CountryName{
			Common:   c.Name.Common,
			Official: c.Name.Official,
		},
		Capitals:   nonNil(c.Capital),
		Continents: nonNil(c.Continents),
		Currencies: make(map[string]insights.Currency, len(c.Currencies)),
		Languages:  make(map[string]string, len(c.Languages)),
		Flag:       c.Flag,
		Population: c.Population,
	}
	for code, cur := range c.Currencies {
		d.Currencies[code] = insights.Currency{Name: cur.Name, Symbol: cur.Symbol}
	}
	for code, lang := range c.Languages {
		d.Languages[code] = lang
	}
	return d
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
