package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"

	"signal-systemv1/internal/model"
	"signal-systemv1/pkg/timeframe"
)

// minRequestSpacing is the request spacing applied when rate limiting is on,
// comfortably inside Binance's public REST weight budget.
const minRequestSpacing = 200 * time.Millisecond

// Binance fetches spot klines through the public REST API. Market data
// endpoints need no credentials.
type Binance struct {
	cli *binance.Client

	mu   sync.Mutex
	last time.Time
	gap  time.Duration
}

func NewBinance(opts Options) *Binance {
	b := &Binance{cli: binance.NewClient("", "")}
	if opts.RateLimit {
		b.gap = minRequestSpacing
	}
	return b
}

func (b *Binance) Name() string { return "binance" }

// FetchCandles returns the latest `limit` klines, oldest first.
func (b *Binance) FetchCandles(ctx context.Context, symbol, tf string, limit int) (model.Series, error) {
	interval, err := timeframe.Normalize(tf)
	if err != nil {
		return nil, fmt.Errorf("binance interval: %w", err)
	}
	if err := b.throttle(ctx); err != nil {
		return nil, err
	}
	klines, err := b.cli.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", symbol, interval, err)
	}
	out := make(model.Series, 0, len(klines))
	for _, k := range klines {
		c, err := convertKline(k)
		if err != nil {
			return nil, fmt.Errorf("binance kline %s %s: %w", symbol, interval, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func convertKline(k *binance.Kline) (model.Candle, error) {
	var (
		c   = model.Candle{TS: k.OpenTime}
		err error
	)
	if c.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return c, err
	}
	if c.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return c, err
	}
	if c.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return c, err
	}
	if c.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return c, err
	}
	if c.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return c, err
	}
	return c, nil
}

// throttle enforces the configured request spacing.
func (b *Binance) throttle(ctx context.Context) error {
	if b.gap == 0 {
		return nil
	}
	b.mu.Lock()
	wait := b.gap - time.Since(b.last)
	b.last = time.Now().Add(wait)
	b.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
