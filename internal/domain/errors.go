package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Configuration problems fail fast with one of these;
// per-security data gaps are reported as undefined values instead.
var (
	// ErrInvalidIndicator is returned for an unknown indicator name.
	ErrInvalidIndicator = errors.New("invalid indicator")
	// ErrInvalidParameter covers non-positive periods and malformed weights.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidSeries is returned when a price series breaks its ordering invariant.
	ErrInvalidSeries = errors.New("invalid price series")
	// ErrInsufficientData marks a security excluded from ranking.
	ErrInsufficientData = errors.New("insufficient data")
)

// ParameterError describes a rejected configuration value.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// NewParameterError builds a ParameterError.
func NewParameterError(field string, value any, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}

// IndicatorError reports an indicator name that is not registered.
type IndicatorError struct {
	Name string
}

func (e *IndicatorError) Error() string {
	return fmt.Sprintf("unknown indicator %q", e.Name)
}

func (e *IndicatorError) Unwrap() error { return ErrInvalidIndicator }
