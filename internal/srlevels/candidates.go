package srlevels

import (
	"math"

	"signal-systemv1/internal/model"
)

// candidate is one raw price level before clustering.
type candidate struct {
	Level     float64
	Method    string
	Timeframe string
	Type      model.ZoneType
}

// swingPoints returns the most recent swing highs and lows: a bar is a swing
// high when its high strictly exceeds every high within `window` bars on both
// sides (symmetric for lows). At most `recent` of each are returned, newest
// last.
func swingPoints(s model.Series, window, recent int) (highs, lows []float64) {
	n := len(s)
	if n < 2*window+1 {
		return nil, nil
	}
	for i := window; i < n-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if s[j].High >= s[i].High {
				isHigh = false
			}
			if s[j].Low <= s[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, s[i].High)
		}
		if isLow {
			lows = append(lows, s[i].Low)
		}
	}
	if len(highs) > recent {
		highs = highs[len(highs)-recent:]
	}
	if len(lows) > recent {
		lows = lows[len(lows)-recent:]
	}
	return highs, lows
}

// pivotLevels returns the classic floor-trader pivot and its first
// support/resistance from the latest bar: p=(H+L+C)/3, s1=2p-H, r1=2p-L.
func pivotLevels(s model.Series) (pivot, s1, r1 float64, ok bool) {
	if len(s) == 0 {
		return 0, 0, 0, false
	}
	last := s[len(s)-1]
	pivot = (last.High + last.Low + last.Close) / 3
	return pivot, 2*pivot - last.High, 2*pivot - last.Low, true
}

var fibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// fibonacciLevels returns retracement levels of the high-low range over the
// last `period` bars.
func fibonacciLevels(s model.Series, period int) []float64 {
	if len(s) < period {
		return nil
	}
	recent := s[len(s)-period:]
	hi, lo := recent[0].High, recent[0].Low
	for _, c := range recent[1:] {
		hi = math.Max(hi, c.High)
		lo = math.Min(lo, c.Low)
	}
	if hi == lo {
		return nil
	}
	out := make([]float64, len(fibRatios))
	for i, r := range fibRatios {
		out[i] = lo + (hi-lo)*r
	}
	return out
}

// orderBlocks scans for engulfing patterns and returns the last bullish and
// bearish order-block levels: a bullish block is the low of a down bar whose
// successor closes above its high, a bearish block is the high of an up bar
// whose successor closes below its low.
func orderBlocks(s model.Series) (bullish, bearish float64, haveBull, haveBear bool) {
	if len(s) < 3 {
		return 0, 0, false, false
	}
	for i := 2; i < len(s); i++ {
		cur, prev := s[i], s[i-1]
		if cur.Close > cur.Open && prev.Close < prev.Open && cur.Close > prev.High {
			bullish, haveBull = prev.Low, true
		}
		if cur.Close < cur.Open && prev.Close > prev.Open && cur.Close < prev.Low {
			bearish, haveBear = prev.High, true
		}
	}
	return bullish, bearish, haveBull, haveBear
}

// volumeProfile returns the volume-weighted average price of HLC3 and the
// point of control (midpoint of the highest-volume bar) over the last
// `period` bars.
func volumeProfile(s model.Series, period int) (vwap, poc float64, ok bool) {
	if len(s) < period {
		return 0, 0, false
	}
	recent := s[len(s)-period:]
	var pvSum, vSum, maxVol float64
	maxIdx := -1
	for i, c := range recent {
		hlc3 := (c.High + c.Low + c.Close) / 3
		pvSum += c.Volume * hlc3
		vSum += c.Volume
		if c.Volume > maxVol {
			maxVol = c.Volume
			maxIdx = i
		}
	}
	if vSum <= 0 || maxIdx < 0 {
		return 0, 0, false
	}
	return pvSum / vSum, (recent[maxIdx].High + recent[maxIdx].Low) / 2, true
}

// psychologicalLevels returns round-number levels around price, spaced by a
// magnitude-scaled interval (1000 above 10k, 100 above 1k, 10 above 100,
// 1 above 10, 0.1 below), within withinPct of price.
func psychologicalLevels(price, withinPct float64) []float64 {
	if price <= 0 {
		return nil
	}
	var interval float64
	switch {
	case price >= 10000:
		interval = 1000
	case price >= 1000:
		interval = 100
	case price >= 100:
		interval = 10
	case price >= 10:
		interval = 1
	default:
		interval = 0.1
	}
	span := withinPct / 100 * price
	start := math.Floor((price-span)/interval) * interval
	end := (math.Floor((price+span)/interval) + 1) * interval
	var out []float64
	for lvl := start; lvl <= end+interval/2; lvl += interval {
		if lvl != price {
			out = append(out, lvl)
		}
	}
	return out
}
