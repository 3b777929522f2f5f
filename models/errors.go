package models

import "errors"

// Sentinel errors shared by every simulator and pricer. Callers match them
// with errors.Is; context is added with fmt.Errorf("...: %w", err).
var (
	// ErrInvalidParameter is returned when a numeric input violates its
	// domain (non-positive horizon, step count, path count, strike, ...).
	ErrInvalidParameter = errors.New("models: invalid parameter")

	// ErrInvalidOptionKind is returned for any option kind other than
	// Call or Put.
	ErrInvalidOptionKind = errors.New("models: invalid option kind")
)
