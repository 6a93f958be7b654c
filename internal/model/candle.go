// Package model defines the core data types shared across the monitoring
// pipeline: candles, monitored targets, signal events and S/R zones.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Candle represents one OHLCV bar for a single target.
// TS is the bar open time in Unix milliseconds (UTC).
type Candle struct {
	TS     int64   `json:"ts"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Time returns the bar open time as a UTC time.Time.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.TS).UTC()
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Series is an ordered candle sequence: strictly increasing by TS,
// no duplicate timestamps.
type Series []Candle

// Validate checks the series ordering invariant.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if s[i].TS <= s[i-1].TS {
			return fmt.Errorf("series not strictly increasing at index %d: %d <= %d", i, s[i].TS, s[i-1].TS)
		}
	}
	return nil
}

// Merge combines incoming candles into the series. Collisions on timestamp
// keep the incoming value (last write wins); output stays sorted and
// deduplicated, so merging the same batch twice is idempotent.
func (s Series) Merge(incoming Series) Series {
	if len(incoming) == 0 {
		return s
	}
	byTS := make(map[int64]Candle, len(s)+len(incoming))
	for _, c := range s {
		byTS[c.TS] = c
	}
	for _, c := range incoming {
		byTS[c.TS] = c
	}
	out := make(Series, 0, len(byTS))
	for _, c := range byTS {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS < out[j].TS })
	return out
}

// Tail returns the last n candles (the whole series when n >= len).
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return nil
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Closes returns the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// LastClose returns the close of the final bar, or 0 for an empty series.
func (s Series) LastClose() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Close
}
