package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCatalog is returned when a source yields no usable records.
	ErrEmptyCatalog = errors.New("source returned no countries")
	// ErrMalformed marks payloads that could not be decoded.
	ErrMalformed = errors.New("malformed country payload")
)

// Load failure reasons.
const (
	ReasonNetwork = "network"
	ReasonParse   = "parse"
)

// LoadError reports a failed catalog load. Nothing is kept from a failed
// attempt; callers retry by calling Load again.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog load failed (%s): %v", e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(err error) *LoadError {
	reason := ReasonNetwork
	if errors.Is(err, ErrMalformed) || errors.Is(err, ErrEmptyCatalog) {
		reason = ReasonParse
	}
	return &LoadError{Reason: reason, Err: err}
}
