package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/country-insights/internal/insights"
)

const (
	DefaultWeatherBaseURL = "https://api.open-meteo.com/v1"

	// historyDays is how far back the window starts; the window is
	// historyDays+1 calendar days including today.
	historyDays = 7
	dateLayout  = "2006-01-02"
)

// OpenMeteoWeather implements insights.WeatherProvider with the Open-Meteo
// forecast API, asking for a past window of hourly readings.
type OpenMeteoWeather struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker

	now func() time.Time
}

func NewOpenMeteoWeather(client *http.Client, baseURL string, backoff BackoffConfig) *OpenMeteoWeather {
	if baseURL == "" {
		baseURL = DefaultWeatherBaseURL
	}
	return &OpenMeteoWeather{
		name:    "openmeteo",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: newHTTPConfig(client, backoff),
		circuit: newCircuitBreaker("openmeteo"),
		now:     time.Now,
	}
}

func (p *OpenMeteoWeather) Name() string {
	return p.name
}

type hourlyResponse struct {
	Timezone string `json:"timezone"`
	Hourly   struct {
		Time          []string   `json:"time"`
		Temperature   []*float64 `json:"temperature_2m"`
		Rain          []*float64 `json:"rain"`
		Precipitation []*float64 `json:"precipitation"`
	} `json:"hourly"`
}

// FetchHistory requests hourly temperature, rain and precipitation from
// seven days ago through today at the location and reduces them to a
// snapshot. An all-null temperature series is insights.ErrNoResult.
func (p *OpenMeteoWeather) FetchHistory(ctx context.Context, at insights.Coordinates) (insights.WeatherSnapshot, error) {
	loc, zone := location(at)
	start, end := p.window(loc)

	values := url.Values{}
	values.Set("latitude", formatCoord(at.Latitude))
	values.Set("longitude", formatCoord(at.Longitude))
	values.Set("hourly", "temperature_2m,rain,precipitation")
	values.Set("start_date", start)
	values.Set("end_date", end)
	values.Set("timezone", zone)
	u := fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode())

	var payload hourlyResponse
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(u), &payload); err != nil {
		return insights.WeatherSnapshot{}, upstreamError(p.name, err)
	}

	snapshot, err := insights.ReduceHourly(insights.HourlySeries{
		Time:          payload.Hourly.Time,
		Temperature:   payload.Hourly.Temperature,
		Rain:          payload.Hourly.Rain,
		Precipitation: payload.Hourly.Precipitation,
	})
	if err != nil {
		return insights.WeatherSnapshot{}, fmt.Errorf("openmeteo returned no temperature readings: %w", err)
	}
	return snapshot, nil
}

// Probe asks for the current temperature at 0,0.
func (p *OpenMeteoWeather) Probe(ctx context.Context) error {
	u := fmt.Sprintf("%s/forecast?latitude=0&longitude=0&current=temperature_2m", p.baseURL)
	var payload map[string]interface{}
	if err := getJSON(ctx, p.name, p.httpCfg, p.circuit, newGetRequest(u), &payload); err != nil {
		return upstreamError(p.name, err)
	}
	return nil
}

// location resolves the zone the window and the hourly timestamps are
// expressed in, along with the value sent as the timezone parameter. A
// missing or unknown zone falls back to the solar offset of the longitude
// and lets the provider pick its own zone.
func location(at insights.Coordinates) (*time.Location, string) {
	if at.Timezone != "" {
		if loc, err := time.LoadLocation(at.Timezone); err == nil {
			return loc, at.Timezone
		}
	}
	offset := int(math.Round(at.Longitude/15)) * 3600
	return time.FixedZone("solar", offset), "auto"
}

// window returns the inclusive start and end dates in loc's calendar.
func (p *OpenMeteoWeather) window(loc *time.Location) (string, string) {
	today := p.now().In(loc)
	return today.AddDate(0, 0, -historyDays).Format(dateLayout), today.Format(dateLayout)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
