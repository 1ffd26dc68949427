package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/logger"
)

var testBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

// countingServer answers with the given statuses in order, repeating the last.
func countingServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	logger.Silence()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statuses[n])
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func get(t *testing.T, srv *httptest.Server, name string) error {
	t.Helper()
	var out map[string]any
	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: testBackoff}
	return getJSON(context.Background(), name, cfg, newCircuitBreaker(name), newGetRequest(srv.URL), &out)
}

func TestRetriesServerErrorsThenSucceeds(t *testing.T) {
	srv, calls := countingServer(t, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK)

	require.NoError(t, get(t, srv, "retry-ok"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesAreBounded(t *testing.T) {
	srv, calls := countingServer(t, http.StatusInternalServerError)

	err := get(t, srv, "retry-exhausted")
	require.Error(t, err)
	assert.Equal(t, int32(testBackoff.MaxRetries+1), calls.Load())

	var se *statusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.code)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	srv, calls := countingServer(t, http.StatusNotFound)

	err := get(t, srv, "not-found")
	assert.True(t, errors.Is(err, errNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	srv, calls := countingServer(t, http.StatusUnauthorized)

	err := get(t, srv, "unauthorized")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTooManyRequestsIsRetried(t *testing.T) {
	srv, calls := countingServer(t, http.StatusTooManyRequests, http.StatusOK)

	require.NoError(t, get(t, srv, "rate-limited"))
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	srv, calls := countingServer(t, http.StatusNotFound)
	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: BackoffConfig{InitialInterval: time.Millisecond}}
	cb := newCircuitBreaker("breaker-404")

	for i := 0; i < 10; i++ {
		var out map[string]any
		err := getJSON(context.Background(), "breaker-404", cfg, cb, newGetRequest(srv.URL), &out)
		require.True(t, errors.Is(err, errNotFound))
	}
	assert.Equal(t, int32(10), calls.Load())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv, calls := countingServer(t, http.StatusInternalServerError)
	cfg := HTTPClientConfig{Client: srv.Client(), Backoff: BackoffConfig{InitialInterval: time.Millisecond}}
	cb := newCircuitBreaker("breaker-500")

	var err error
	for i := 0; i < 8; i++ {
		var out map[string]any
		err = getJSON(context.Background(), "breaker-500", cfg, cb, newGetRequest(srv.URL), &out)
	}
	assert.True(t, errors.Is(err, errCircuitOpen))
	assert.Less(t, calls.Load(), int32(8))
}

func TestMissingClient(t *testing.T) {
	var out map[string]any
	err := getJSON(context.Background(), "none", HTTPClientConfig{Backoff: testBackoff}, newCircuitBreaker("none"), newGetRequest("http://example.invalid"), &out)
	assert.True(t, errors.Is(err, errNoHTTPClient))
}

func TestUpstreamErrorCarriesStatus(t *testing.T) {
	err := upstreamError("p", &statusError{code: 502})
	var ue *insights.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "p", ue.Provider)
	assert.Equal(t, 502, ue.StatusCode)

	err = upstreamError("p", errNotFound)
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusNotFound, ue.StatusCode)
}

func TestZeroBackoffUsesDefault(t *testing.T) {
	p := NewRestCountries(http.DefaultClient, "", BackoffConfig{})
	assert.Equal(t, DefaultBackoff, p.httpCfg.Backoff)

	w := NewOpenMeteoWeather(http.DefaultClient, "", testBackoff)
	assert.Equal(t, testBackoff, w.httpCfg.Backoff)
}
