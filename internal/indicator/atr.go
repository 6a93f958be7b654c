package indicator

import "math"

// ATR returns the Average True Range with Wilder smoothing. True range uses
// the previous close, so it starts at index 1; the first output value sits at
// index period (seeded with the simple mean of the first period true ranges),
// earlier bars are NaN.
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	if period <= 0 || n <= period {
		return out
	}
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	seed := 0.0
	for i := 1; i <= period; i++ {
		seed += tr[i]
	}
	out[period] = seed / float64(period)
	for i := period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}
