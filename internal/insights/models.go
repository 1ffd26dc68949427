package insights

import (
	"time"
)

// CountrySummary is one entry of a free-text country search.
type CountrySummary struct {
	Code        string   `json:"code"` // ISO-2, lower case
	DisplayName string   `json:"displayName"`
	Flag        string   `json:"flag"`
	Population  int64    `json:"population"`
	Capital     *string  `json:"capital"`
	Languages   []string `json:"languages"`
	Currencies  []string `json:"currencies"`
	Region      string   `json:"region"`
	Subregion   string   `json:"subregion"`
	AreaKm2     float64  `json:"areaKm2"`
}

// CountryName holds the common and official names of a country.
type CountryName struct {
	Common   string `json:"common"`
	Official string `json:"official"`
}

// Currency describes a currency used by a country.
type Currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// CountryDetail is the aggregated view of a single country, including the
// weather at its first capital. Missing upstream fields are empty, never nil.
type CountryDetail struct {
	Name       CountryName         `json:"name"`
	Capitals   []string            `json:"capitals"`
	Continents []string            `json:"continents"`
	Currencies map[string]Currency `json:"currencies"`
	Languages  map[string]string   `json:"languages"`
	Flag       string              `json:"flag"`
	Population int64               `json:"population"`
	Weather    WeatherSnapshot     `json:"weather"`
}

// Coordinates is a latitude/longitude pair in decimal degrees. Timezone is
// the IANA zone of the place when the geocoder knows it.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// WeatherSnapshot is the latest hourly reading plus a daily-average history.
type WeatherSnapshot struct {
	LatestTemperatureC    float64            `json:"latestTemperatureC"`
	LatestRainMm          float64            `json:"latestRainMm"`
	LatestPrecipitationMm float64            `json:"latestPrecipitationMm"`
	IsDaytime             bool               `json:"isDaytime"`
	History               TemperatureHistory `json:"history"`
}

// TemperatureHistory holds index-aligned dates (ascending) and daily averages.
type TemperatureHistory struct {
	Dates                    []string  `json:"dates"`
	DailyAverageTemperatures []float64 `json:"dailyAverageTemperatures"`
}

// HourlySeries is a provider's hourly readings aligned on Time.
// Nil entries are missing readings.
type HourlySeries struct {
	Time          []string
	Temperature   []*float64
	Rain          []*float64
	Precipitation []*float64
}

// NewsArticle is a single article as returned by a news provider.
type NewsArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	SourceID    string `json:"sourceId,omitempty"`
	SourceName  string `json:"sourceName,omitempty"`
}

// NewsPage is one page of a news feed. A nil NextCursor means there are no
// further pages.
type NewsPage struct {
	Articles     []NewsArticle `json:"articles"`
	NextCursor   *string       `json:"nextCursor"`
	TotalResults int           `json:"totalResults"`
}

// NewsQuery selects a news page. Cursor is empty for the first page.
type NewsQuery struct {
	Term    string
	Country string
	Cursor  string
}

// ProbeResult records one reachability check of an upstream provider.
type ProbeResult struct {
	Provider  string        `json:"provider"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latencyNs"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checkedAt"` // always UTC
}
