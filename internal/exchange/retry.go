package exchange

import (
	"context"
	"fmt"
	"time"

	"signal-systemv1/internal/model"
)

// Retrier wraps a Source with fixed-delay retries. The final failed attempt
// surfaces as a terminal error carrying the attempt count.
type Retrier struct {
	src        Source
	maxRetries int
	delay      time.Duration

	// OnRetry is invoked with the failed attempt number before each retry.
	OnRetry func(attempt int)
}

func NewRetrier(src Source, maxRetries int, delay time.Duration) *Retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Retrier{src: src, maxRetries: maxRetries, delay: delay}
}

func (r *Retrier) Name() string { return r.src.Name() }

func (r *Retrier) FetchCandles(ctx context.Context, symbol, tf string, limit int) (model.Series, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		series, err := r.src.FetchCandles(ctx, symbol, tf, limit)
		if err == nil {
			return series, nil
		}
		lastErr = err
		if attempt < r.maxRetries {
			if r.OnRetry != nil {
				r.OnRetry(attempt)
			}
			t := time.NewTimer(r.delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("fetch %s %s failed after %d attempts: %w", symbol, tf, r.maxRetries, lastErr)
}
