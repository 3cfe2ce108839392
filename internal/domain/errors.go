package domain

import "errors"

var (
	// ErrUnknownSymbol is returned when a symbol has no configuration.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrInvalidParameter is returned for out-of-range engine inputs.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInsufficientHistory is returned when a provider yields fewer bars than required.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUpstreamUnavailable marks provider failures; the snapshot cache recovers from it.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
