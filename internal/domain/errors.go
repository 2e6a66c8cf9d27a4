package domain

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when the upstream yields an empty series for a ticker.
var ErrNoData = errors.New("no data")

// UpstreamError wraps a failure of the market data provider: transport errors,
// malformed payloads or provider-reported error codes.
type UpstreamError struct {
	Provider string
	Symbol   string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s %s: %v", e.Provider, e.Symbol, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError builds an UpstreamError.
func NewUpstreamError(provider, symbol string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Symbol: symbol, Err: err}
}

// PersistenceError reports a snapshot read or write failure. The cache stays
// usable in memory when one is returned.
type PersistenceError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
