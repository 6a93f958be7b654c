package indicator

import (
	"fmt"
	"math"

	"signal-systemv1/internal/model"
)

// TrailingStopParams configures the ATR trailing-stop computation.
type TrailingStopParams struct {
	MAType        MAType
	MAPeriod      int
	ATRPeriod     int
	Multiplier    float64
	UseHeikinAshi bool
	PriceSource   PriceSource
	AllowBuy      bool
	AllowSell     bool
}

// TrailingStopResult holds the derived columns, one row per input candle.
// Buy and Sell are edge flags: true only on the bar where the crossover
// first holds, never both on the same row.
type TrailingStopResult struct {
	Src  []float64
	MA   []float64
	Stop []float64
	Buy  []bool
	Sell []bool
}

// Len returns the number of rows.
func (r TrailingStopResult) Len() int { return len(r.Stop) }

// minHistory is the smallest series the computation accepts: enough bars for
// the ATR seed plus one bar to detect an edge.
func (p TrailingStopParams) minHistory() int {
	n := p.ATRPeriod
	if p.MAPeriod > n {
		n = p.MAPeriod
	}
	return n + 2
}

// TrailingStop computes the ATR trailing stop and its buy/sell edges over the
// series. Deterministic and stateless: the same series and params always
// produce the same result.
//
// The stop recursion follows the classic flip rule, evaluated in this exact
// order per bar (prev = stop[i-1], reset to 0 whenever the previous stop is
// NaN, so the recursion restarts on the first bar with a valid ATR):
//
//	cand = src > prev ? src-nLoss : src+nLoss
//	cand = (src < prev && srcPrev < prev) ? min(prev, src+nLoss) : cand
//	stop = (src > prev && srcPrev > prev) ? max(prev, src-nLoss) : cand
//
// The branch order is load-bearing: the final max-branch re-tests src > prev
// after cand may have been reassigned, and the two tests are not redundant.
func TrailingStop(s model.Series, p TrailingStopParams) (TrailingStopResult, error) {
	if len(s) < p.minHistory() {
		return TrailingStopResult{}, fmt.Errorf("insufficient history: %d bars, need %d", len(s), p.minHistory())
	}

	n := len(s)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	for i, c := range s {
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
	}

	src := SelectSource(s, p.PriceSource, p.UseHeikinAshi)
	// ATR always runs on the raw columns, even with Heikin-Ashi enabled.
	atr := ATR(high, low, closes, p.ATRPeriod)
	thema := MovingAverage(p.MAType, src, p.MAPeriod)

	stop := make([]float64, n)
	prev := 0.0
	srcPrev := math.NaN()
	for i := 0; i < n; i++ {
		if math.IsNaN(prev) {
			// ATR warmup leaves NaN stops behind; the recursion restarts
			// from 0 at the first valid bar, like bar 0.
			prev = 0
		}
		nLoss := p.Multiplier * atr[i]
		cand := src[i] + nLoss
		if src[i] > prev {
			cand = src[i] - nLoss
		}
		if src[i] < prev && srcPrev < prev {
			cand = math.Min(prev, src[i]+nLoss)
		}
		if src[i] > prev && srcPrev > prev {
			stop[i] = math.Max(prev, src[i]-nLoss)
		} else {
			stop[i] = cand
		}
		prev = stop[i]
		srcPrev = src[i]
	}

	buy := make([]bool, n)
	sell := make([]bool, n)
	for i := 1; i < n; i++ {
		if p.AllowBuy && thema[i-1] < stop[i-1] && thema[i] > stop[i] && src[i] > stop[i] {
			buy[i] = true
		}
		if p.AllowSell && thema[i-1] > stop[i-1] && thema[i] < stop[i] && src[i] < stop[i] {
			sell[i] = true
		}
	}

	return TrailingStopResult{Src: src, MA: thema, Stop: stop, Buy: buy, Sell: sell}, nil
}
