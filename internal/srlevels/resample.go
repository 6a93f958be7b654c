// Package srlevels computes multi-timeframe support/resistance zones: the
// base candle series is resampled to each configured timeframe, candidate
// levels are derived from the enabled detection methods, and all candidates
// are clustered into ranked zones around the current price.
package srlevels

import (
	"time"

	"signal-systemv1/internal/model"
)

// Resample aggregates the series into buckets of the given width:
// open=first, high=max, low=min, close=last, volume=sum. Input order is
// preserved; empty buckets simply do not appear.
func Resample(s model.Series, bucket time.Duration) model.Series {
	if bucket <= 0 || len(s) == 0 {
		return s
	}
	ms := bucket.Milliseconds()
	out := make(model.Series, 0, len(s))
	var cur model.Candle
	curStart := int64(-1)
	for _, c := range s {
		start := c.TS - c.TS%ms
		if start != curStart {
			if curStart >= 0 {
				out = append(out, cur)
			}
			curStart = start
			cur = model.Candle{TS: start, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	if curStart >= 0 {
		out = append(out, cur)
	}
	return out
}
