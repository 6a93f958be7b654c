package indicator

import "signal-systemv1/internal/model"

// PriceSource selects the column fed into the moving average and trailing
// stop. With the Heikin-Ashi transform enabled, "open"/"close" refer to the
// transformed columns; otherwise to the raw candle columns.
type PriceSource string

const (
	SourceOpen  PriceSource = "open"
	SourceClose PriceSource = "close"
)

// HeikinAshi computes the smoothed open/close transform:
// haClose = (o+h+l+c)/4, haOpen[0] = open[0],
// haOpen[i] = (haOpen[i-1] + haClose[i-1]) / 2.
func HeikinAshi(s model.Series) (haOpen, haClose []float64) {
	n := len(s)
	haOpen = make([]float64, n)
	haClose = make([]float64, n)
	for i, c := range s {
		haClose[i] = (c.Open + c.High + c.Low + c.Close) / 4
		if i == 0 {
			haOpen[i] = c.Open
		} else {
			haOpen[i] = (haOpen[i-1] + haClose[i-1]) / 2
		}
	}
	return haOpen, haClose
}

// SelectSource returns the src column for the given source and transform
// setting.
func SelectSource(s model.Series, source PriceSource, heikin bool) []float64 {
	if heikin {
		haOpen, haClose := HeikinAshi(s)
		if source == SourceOpen {
			return haOpen
		}
		return haClose
	}
	out := make([]float64, len(s))
	for i, c := range s {
		if source == SourceOpen {
			out[i] = c.Open
		} else {
			out[i] = c.Close
		}
	}
	return out
}
