// Package exchange adapts third-party market-data clients to one candle
// source contract, with retry and circuit-breaker wrappers layered on top.
package exchange

import (
	"context"
	"fmt"
	"strings"

	"signal-systemv1/internal/model"
)

// Source fetches the most recent candles for a symbol/timeframe pair.
// Implementations must return candles ordered by open time ascending.
type Source interface {
	Name() string
	FetchCandles(ctx context.Context, symbol, timeframe string, limit int) (model.Series, error)
}

// Options tune a constructed source.
type Options struct {
	// RateLimit inserts a minimum spacing between requests when true.
	RateLimit bool
}

// New constructs a source for the named exchange. Only exchanges with a
// wired adapter are accepted.
func New(name string, opts Options) (Source, error) {
	switch strings.ToLower(name) {
	case "binance":
		return NewBinance(opts), nil
	default:
		return nil, fmt.Errorf("unsupported exchange %q", name)
	}
}
