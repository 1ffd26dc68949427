package insights

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested country does not exist upstream.
	ErrNotFound = errors.New("country not found")

	// ErrNoResult is returned when a provider answered but had no usable data.
	ErrNoResult = errors.New("no usable result")

	// ErrInvalidCursor is returned when a news cursor cannot be honoured.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
)

// Stage names a step of the country detail aggregation.
type Stage string

const (
	StageCountry            Stage = "country"
	StageCapitalCoordinates Stage = "capital-coordinates"
	StageWeather            Stage = "weather"
)

// DependencyFailure reports that a required aggregation stage failed or
// returned unusable data.
type DependencyFailure struct {
	Stage Stage
	Err   error
}

func (e *DependencyFailure) Error() string {
	return fmt.Sprintf("dependency failure at %s: %v", e.Stage, e.Err)
}

func (e *DependencyFailure) Unwrap() error {
	return e.Err
}

// UpstreamError is a transport failure or non-success status from a provider.
// StatusCode is zero when no response was received.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
