// Package weather looks up current conditions for a capital city.
package weather

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoLocation is returned when a lookup is attempted without a location.
var ErrNoLocation = errors.New("weather: empty location")

// Client is a provider of current weather data.
type Client interface {
	// Current returns the current conditions for location.
	Current(ctx context.Context, location string) (Report, error)
}

// Report is a simplified current-conditions record.
type Report struct {
	Location    string
	Temperature float64 // °C with metric units
	FeelsLike   float64
	Description string
	Icon        string
	Humidity    int // percent
}

// IconURL returns the provider image for the report icon.
func (r Report) IconURL() string {
	if r.Icon == "" {
		return ""
	}
	return fmt.Sprintf("https://openweathermap.org/img/wn/%s@2x.png", r.Icon)
}

// LookupError is returned when the provider answered with a non-success
// status or an unusable body.
type LookupError struct {
	Location string
	Status   int
	Err      error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather lookup for %q failed (HTTP %d): %v", e.Location, e.Status, e.Err)
	}
	return fmt.Sprintf("weather lookup for %q failed (HTTP %d)", e.Location, e.Status)
}

func (e *LookupError) Unwrap() error { return e.Err }

// ConnectionError is returned when the request itself could not be made.
type ConnectionError struct {
	Location string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("weather service unreachable for %q: %v", e.Location, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Disabled is a Client that never answers. It stands in when no API key is
// configured.
type Disabled struct{}

// Current implements Client.
func (Disabled) Current(context.Context, string) (Report, error) {
	return Report{}, ErrDisabled
}

// ErrDisabled is returned by Disabled.
var ErrDisabled = errors.New("weather: lookups disabled")
