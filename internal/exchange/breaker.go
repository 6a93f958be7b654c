package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signal-systemv1/internal/model"
)

// BreakerState represents the circuit breaker state.
type BreakerState int

const (
	BreakerClosed   BreakerState = 0 // Normal operation — requests pass through
	BreakerOpen     BreakerState = 1 // Circuit tripped — requests rejected immediately
	BreakerHalfOpen BreakerState = 2 // Testing — one request allowed through to probe
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = fmt.Errorf("circuit breaker is open")

// Breaker wraps a Source with a circuit breaker: after maxFailures
// consecutive fetch failures the breaker opens and rejects calls for
// resetTimeout, then allows one probe through. A successful probe closes the
// breaker, a failed one reopens it. This keeps a dead exchange endpoint from
// burning every batch's retry budget.
type Breaker struct {
	src Source

	mu           sync.Mutex
	state        BreakerState
	failures     int
	maxFailures  int
	resetTimeout time.Duration
	lastFailure  time.Time

	OnStateChange func(from, to BreakerState)
}

func NewBreaker(src Source, maxFailures int, resetTimeout time.Duration) *Breaker {
	return &Breaker{
		src:          src,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        BreakerClosed,
	}
}

func (b *Breaker) Name() string { return b.src.Name() }

func (b *Breaker) FetchCandles(ctx context.Context, symbol, tf string, limit int) (model.Series, error) {
	b.mu.Lock()
	switch b.state {
	case BreakerOpen:
		if time.Since(b.lastFailure) > b.resetTimeout {
			b.transition(BreakerHalfOpen)
		} else {
			b.mu.Unlock()
			return nil, ErrCircuitOpen
		}
	case BreakerHalfOpen:
		// Probe in flight; serialized by callers hitting the same breaker.
	}
	b.mu.Unlock()

	series, err := b.src.FetchCandles(ctx, symbol, tf, limit)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == BreakerHalfOpen || b.failures >= b.maxFailures {
			b.transition(BreakerOpen)
		}
		return nil, err
	}
	if b.state == BreakerHalfOpen {
		b.transition(BreakerClosed)
	}
	b.failures = 0
	return series, nil
}

// CurrentState returns the breaker state.
func (b *Breaker) CurrentState() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
	if b.OnStateChange != nil {
		b.OnStateChange(from, to)
	}
}
