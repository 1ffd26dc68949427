package insights

import (
	"math"
	"sort"
	"strings"
)

// roundingEpsilon absorbs binary representation error so that averages such
// as 10.05 (stored as 10.0499999...) still round half-up.
const roundingEpsilon = 1e-9

// ReduceHourly turns an hourly series into a WeatherSnapshot: the latest
// non-null temperature with its paired rain/precipitation, and the per-day
// average history. It returns ErrNoResult when every temperature is null.
func ReduceHourly(series HourlySeries) (WeatherSnapshot, error) {
	idx, ok := latestIndex(series.Temperature)
	if !ok {
		return WeatherSnapshot{}, ErrNoResult
	}

	return WeatherSnapshot{
		LatestTemperatureC:    *series.Temperature[idx],
		LatestRainMm:          valueAt(series.Rain, idx),
		LatestPrecipitationMm: valueAt(series.Precipitation, idx),
		// Day/night cannot be derived from a historical window; fixed placeholder.
		IsDaytime: true,
		History:   DailyAverages(series),
	}, nil
}

// DailyAverages groups non-null temperatures by calendar date (the date part
// of each timestamp), averages each group rounded half-up to one decimal,
// and returns the days in ascending order.
func DailyAverages(series HourlySeries) TemperatureHistory {
	type bucket struct {
		sum   float64
		count int
	}

	buckets := make(map[string]*bucket)
	for i, ts := range series.Time {
		if i >= len(series.Temperature) || series.Temperature[i] == nil {
			continue
		}
		day := dateOf(ts)
		if day == "" {
			continue
		}
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += *series.Temperature[i]
		b.count++
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Strings(days)

	history := TemperatureHistory{
		Dates:                    days,
		DailyAverageTemperatures: make([]float64, 0, len(days)),
	}
	for _, d := range days {
		b := buckets[d]
		history.DailyAverageTemperatures = append(history.DailyAverageTemperatures, RoundHalfUp(b.sum/float64(b.count)))
	}
	return history
}

// RoundHalfUp rounds x to one decimal place, halves toward +Inf.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x*10+0.5+roundingEpsilon) / 10
}

func latestIndex(values []*float64) (int, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			return i, true
		}
	}
	return 0, false
}

func valueAt(values []*float64, i int) float64 {
	if i < 0 || i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

// dateOf extracts YYYY-MM-DD from an ISO-8601 timestamp such as "2024-05-01T13:00".
func dateOf(ts string) string {
	day, _, _ := strings.Cut(strings.TrimSpace(ts), "T")
	return day
}
