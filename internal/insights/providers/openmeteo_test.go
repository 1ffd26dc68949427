package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/logger"
)

const hourlyJSON = `{
	"timezone": "Europe/Paris",
	"hourly": {
		"time": ["2026-10-16T22:00", "2026-10-16T23:00", "2026-10-17T00:00", "2026-10-17T01:00", "2026-10-17T02:00"],
		"temperature_2m": [10.04, 10.06, 7.5, 8.1, null],
		"rain": [0, 0, 0.2, 1.4, null],
		"precipitation": [0, 0, 0.3, 1.6, null]
	}
}`

func weatherServer(t *testing.T, body string, status int) (*OpenMeteoWeather, *url.Values) {
	t.Helper()
	logger.Silence()

	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		query = r.URL.Query()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p := NewOpenMeteoWeather(srv.Client(), srv.URL, testBackoff)
	p.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	return p, &query
}

func TestFetchHistory(t *testing.T) {
	p, query := weatherServer(t, hourlyJSON, http.StatusOK)

	snapshot, err := p.FetchHistory(context.Background(), insights.Coordinates{Latitude: 48.8534, Longitude: 2.3488})
	require.NoError(t, err)

	assert.Equal(t, "48.8534", query.Get("latitude"))
	assert.Equal(t, "2.3488", query.Get("longitude"))
	assert.Equal(t, "temperature_2m,rain,precipitation", query.Get("hourly"))
	assert.Equal(t, "2026-10-10", query.Get("start_date"))
	assert.Equal(t, "2026-10-17", query.Get("end_date"))
	assert.Equal(t, "auto", query.Get("timezone"))

	assert.Equal(t, 8.1, snapshot.LatestTemperatureC)
	assert.Equal(t, 1.4, snapshot.LatestRainMm)
	assert.Equal(t, 1.6, snapshot.LatestPrecipitationMm)
	assert.True(t, snapshot.IsDaytime)
	assert.Equal(t, []string{"2026-10-16", "2026-10-17"}, snapshot.History.Dates)
	assert.Equal(t, []float64{10.1, 7.8}, snapshot.History.DailyAverageTemperatures)
}

func TestFetchHistoryWindowUsesLocalDate(t *testing.T) {
	p, query := weatherServer(t, hourlyJSON, http.StatusOK)
	// 12:00 UTC is midnight of the 17th at UTC-12 and of the 18th at UTC+12.
	_, err := p.FetchHistory(context.Background(), insights.Coordinates{Latitude: -21.1, Longitude: -175.2})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", query.Get("end_date"))

	_, err = p.FetchHistory(context.Background(), insights.Coordinates{Latitude: 35.7, Longitude: 179})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", query.Get("end_date"))
	assert.Equal(t, "2026-10-11", query.Get("start_date"))
}

func TestFetchHistoryWindowFollowsCapitalTimezone(t *testing.T) {
	cases := []struct {
		name   string
		now    time.Time
		coords insights.Coordinates
	}{
		{"madrid", time.Date(2026, 10, 17, 22, 30, 0, 0, time.UTC), insights.Coordinates{Latitude: 40.4165, Longitude: -3.7026, Timezone: "Europe/Madrid"}},
		{"new delhi", time.Date(2026, 10, 17, 18, 45, 0, 0, time.UTC), insights.Coordinates{Latitude: 28.6358, Longitude: 77.2245, Timezone: "Asia/Kolkata"}},
		{"urumqi on shanghai time", time.Date(2026, 10, 17, 17, 0, 0, 0, time.UTC), insights.Coordinates{Latitude: 43.8, Longitude: 87.6, Timezone: "Asia/Shanghai"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, query := weatherServer(t, hourlyJSON, http.StatusOK)
			p.now = func() time.Time { return tc.now }

			_, err := p.FetchHistory(context.Background(), tc.coords)
			require.NoError(t, err)
			assert.Equal(t, "2026-10-18", query.Get("end_date"))
			assert.Equal(t, "2026-10-11", query.Get("start_date"))
			assert.Equal(t, tc.coords.Timezone, query.Get("timezone"))
		})
	}
}

func TestFetchHistoryUnknownTimezoneFallsBack(t *testing.T) {
	p, query := weatherServer(t, hourlyJSON, http.StatusOK)

	_, err := p.FetchHistory(context.Background(), insights.Coordinates{Latitude: 35.7, Longitude: 179, Timezone: "Mars/Olympus_Mons"})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", query.Get("end_date"))
	assert.Equal(t, "auto", query.Get("timezone"))
}

func TestFetchHistoryAllNull(t *testing.T) {
	p, _ := weatherServer(t, `{"hourly":{"time":["2026-10-17T00:00"],"temperature_2m":[null]}}`, http.StatusOK)

	_, err := p.FetchHistory(context.Background(), insights.Coordinates{})
	assert.True(t, errors.Is(err, insights.ErrNoResult))
}

func TestFetchHistoryUpstreamFailure(t *testing.T) {
	p, _ := weatherServer(t, `{"error":true,"reason":"bad"}`, http.StatusBadRequest)

	_, err := p.FetchHistory(context.Background(), insights.Coordinates{})
	var ue *insights.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "openmeteo", ue.Provider)
}
