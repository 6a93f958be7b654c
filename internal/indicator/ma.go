// Package indicator implements the trailing-stop trend detector and the
// moving-average / volatility primitives it is built from. All functions are
// pure: they take a full series and return a derived column of the same
// length, with NaN on warmup bars that lack enough history.
package indicator

import "math"

// MAType selects the smoothing applied to the price source.
type MAType string

const (
	SMA  MAType = "SMA"
	EMA  MAType = "EMA"
	WMA  MAType = "WMA"
	Hull MAType = "HMA"
)

// MovingAverage dispatches to the requested smoothing. Unknown types fall
// back to SMA.
func MovingAverage(typ MAType, src []float64, period int) []float64 {
	switch typ {
	case EMA:
		return ExpMA(src, period)
	case WMA:
		return WeightedMA(src, period)
	case Hull:
		return HullMA(src, period)
	default:
		return SimpleMA(src, period)
	}
}

// SimpleMA returns the arithmetic mean over a sliding window.
func SimpleMA(src []float64, period int) []float64 {
	out := nanSlice(len(src))
	if period <= 0 || len(src) < period {
		return out
	}
	sum := 0.0
	for i, v := range src {
		sum += v
		if i >= period {
			sum -= src[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ExpMA returns an exponential moving average seeded with the simple mean of
// the first period values.
func ExpMA(src []float64, period int) []float64 {
	out := nanSlice(len(src))
	if period <= 0 || len(src) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += src[i]
	}
	out[period-1] = seed / float64(period)
	k := 2.0 / float64(period+1)
	for i := period; i < len(src); i++ {
		out[i] = src[i]*k + out[i-1]*(1-k)
	}
	return out
}

// WeightedMA returns a linearly weighted moving average (most recent bar
// weighted highest). A window containing NaN yields NaN.
func WeightedMA(src []float64, period int) []float64 {
	out := nanSlice(len(src))
	if period <= 0 || len(src) < period {
		return out
	}
	denom := float64(period*(period+1)) / 2
	for i := period - 1; i < len(src); i++ {
		sum := 0.0
		valid := true
		for j := 0; j < period; j++ {
			v := src[i-period+1+j]
			if math.IsNaN(v) {
				valid = false
				break
			}
			sum += v * float64(j+1)
		}
		if valid {
			out[i] = sum / denom
		}
	}
	return out
}

// HullMA computes WMA(2*WMA(src, n/2) - WMA(src, n), trunc(sqrt(n))).
// Both n/2 and sqrt(n) truncate toward zero.
func HullMA(src []float64, period int) []float64 {
	if period <= 1 || len(src) < period {
		return nanSlice(len(src))
	}
	half := WeightedMA(src, period/2)
	full := WeightedMA(src, period)
	raw := make([]float64, len(src))
	for i := range raw {
		raw[i] = 2*half[i] - full[i]
	}
	return WeightedMA(raw, int(math.Sqrt(float64(period))))
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
