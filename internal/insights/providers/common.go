package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/country-insights/internal/insights"
	"github.com/i474232898/country-insights/internal/logger"
	"github.com/i474232898/country-insights/internal/metrics"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// DefaultBackoff is used by providers constructed without explicit settings.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 300 * time.Millisecond,
	MaxInterval:     3 * time.Second,
}

// newHTTPConfig pairs client with backoff, substituting DefaultBackoff for a
// zero BackoffConfig.
func newHTTPConfig(client *http.Client, backoff BackoffConfig) HTTPClientConfig {
	if backoff == (BackoffConfig{}) {
		backoff = DefaultBackoff
	}
	return HTTPClientConfig{Client: client, Backoff: backoff}
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNotFound      = errors.New("resource not found")
)

// statusError is a non-2xx upstream response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// retryable reports whether another attempt may succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, errNotFound)
}

// newCircuitBreaker builds the per-provider breaker. A 404 is an answer, not
// a fault, so it never trips the breaker.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.WithFields(logger.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("circuit breaker state changed")
			metrics.SetBreakerState(name, int(to))
		},
	})
}

// doRequestWithResilience executes the HTTP request with retries, exponential
// backoff, and a circuit breaker. A 404 is returned as errNotFound and is
// never retried.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, stripURL(execErr)
			}

			if resp.StatusCode == http.StatusNotFound {
				resp.Body.Close()
				return nil, errNotFound
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, &statusError{code: resp.StatusCode}
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if !retryable(err) || ctx.Err() != nil || attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// getJSON performs a resilient GET and decodes the JSON body into out.
func getJSON(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
	out interface{},
) error {
	return fetch(ctx, provider, cfg, cb, buildRequest, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(out)
	})
}

// fetch performs a resilient GET and hands the body to decode. Calls are
// recorded in the upstream metrics under provider.
func fetch(
	ctx context.Context,
	provider string,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
	decode func(io.Reader) error,
) error {
	start := time.Now()

	resp, err := doRequestWithResilience(ctx, cfg, cb, buildRequest)
	if err != nil {
		metrics.ObserveUpstream(provider, outcomeOf(err), time.Since(start))
		return err
	}
	defer resp.Body.Close()

	if err := decode(resp.Body); err != nil {
		metrics.ObserveUpstream(provider, "decode_error", time.Since(start))
		return fmt.Errorf("failed to decode response: %w", err)
	}

	metrics.ObserveUpstream(provider, "ok", time.Since(start))
	return nil
}

// stripURL drops the request URL from transport errors; query strings may
// carry credentials.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s request failed: %w", ue.Op, ue.Err)
	}
	return err
}

func outcomeOf(err error) string {
	var se *statusError
	switch {
	case errors.Is(err, errNotFound):
		return "not_found"
	case errors.Is(err, errCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case errors.As(err, &se):
		return fmt.Sprintf("status_%d", se.code)
	default:
		return "error"
	}
}

// upstreamError wraps err as an *insights.UpstreamError for provider.
func upstreamError(provider string, err error) error {
	ue := &insights.UpstreamError{Provider: provider, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		ue.StatusCode = se.code
	}
	if errors.Is(err, errNotFound) {
		ue.StatusCode = http.StatusNotFound
	}
	return ue
}

func newGetRequest(rawURL string) func() (*http.Request, error) {
	return newGetRequestAccepting(rawURL, "application/json")
}

func newGetRequestAccepting(rawURL, accept string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	}
}

const userAgent = "country-insights/1.0"
