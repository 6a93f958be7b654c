package srlevels

import (
	"fmt"

	"signal-systemv1/internal/model"
	"signal-systemv1/pkg/timeframe"
)

const (
	swingWindow      = 3
	fibPeriod        = 50
	volProfilePeriod = 50
)

// Params configures zone detection and ranking. Zero values are not useful;
// start from DefaultParams.
type Params struct {
	Timeframes        []string
	ShowSwings        bool
	ShowPivots        bool
	ShowFibonacci     bool
	ShowOrderBlocks   bool
	ShowVolumeProfile bool
	ShowPsychological bool
	SwingLookback     int
	ClusterPercent    float64
	ShowWithinPercent float64
	TopN              int
	ReactionLookback  int
	MinConfluence     int
	SortBy            SortKey
}

// DefaultParams mirrors the indicator's stock configuration: swings and
// psychological levels on, everything else off.
func DefaultParams() Params {
	return Params{
		Timeframes:        []string{"15", "60", "240"},
		ShowSwings:        true,
		ShowPsychological: true,
		SwingLookback:     3,
		ClusterPercent:    0.25,
		ShowWithinPercent: 2.5,
		TopN:              8,
		ReactionLookback:  100,
		MinConfluence:     2,
		SortBy:            SortConfluence,
	}
}

// Engine computes ranked S/R zones for the latest bar of a series. It is
// stateless: every call re-derives candidates from scratch, since clustering
// depends on the full candidate set.
type Engine struct {
	p Params
}

func New(p Params) *Engine {
	return &Engine{p: p}
}

// Compute resamples the base series to each configured timeframe, gathers
// candidate levels from the enabled methods, clusters them into zones and
// returns the ranked result for the series' last close.
func (e *Engine) Compute(base model.Series, baseTF string) ([]model.SRZone, error) {
	price := base.LastClose()
	if price <= 0 {
		return nil, fmt.Errorf("empty series or non-positive close")
	}
	baseMin, err := timeframe.Minutes(baseTF)
	if err != nil {
		return nil, fmt.Errorf("base timeframe: %w", err)
	}

	var cands []candidate
	for _, tf := range e.p.Timeframes {
		mins, err := timeframe.Minutes(tf)
		if err != nil {
			return nil, fmt.Errorf("timeframe %q: %w", tf, err)
		}
		tfSeries := base
		if mins != baseMin {
			d, _ := timeframe.Parse(tf)
			tfSeries = Resample(base, d)
		}
		if len(tfSeries) == 0 {
			continue
		}
		cands = append(cands, e.collect(tfSeries, tf, price)...)
	}

	zones := clusterCandidates(cands, price, e.p.ClusterPercent)
	for i := range zones {
		zones[i].Reactions = countReactions(base, zones[i].Top, zones[i].Bottom, e.p.ReactionLookback)
	}
	return rankZones(zones, price, e.p.ShowWithinPercent, e.p.MinConfluence, e.p.TopN, e.p.SortBy), nil
}

// collect runs the enabled candidate methods against one timeframe's series.
func (e *Engine) collect(s model.Series, tf string, price float64) []candidate {
	var out []candidate
	if e.p.ShowSwings {
		highs, lows := swingPoints(s, swingWindow, e.p.SwingLookback)
		for _, h := range highs {
			out = append(out, candidate{h, "Swing High", tf, model.ZoneResistance})
		}
		for _, l := range lows {
			out = append(out, candidate{l, "Swing Low", tf, model.ZoneSupport})
		}
	}
	if e.p.ShowPivots {
		if p, s1, r1, ok := pivotLevels(s); ok {
			out = append(out,
				candidate{p, "Pivot", tf, model.ZonePivot},
				candidate{s1, "S1", tf, model.ZoneSupport},
				candidate{r1, "R1", tf, model.ZoneResistance})
		}
	}
	if e.p.ShowFibonacci {
		for i, lvl := range fibonacciLevels(s, fibPeriod) {
			zt := model.ZoneSupport
			if lvl > price {
				zt = model.ZoneResistance
			}
			out = append(out, candidate{lvl, fmt.Sprintf("Fib %.3f", fibRatios[i]), tf, zt})
		}
	}
	if e.p.ShowOrderBlocks {
		bull, bear, haveBull, haveBear := orderBlocks(s)
		if haveBull {
			out = append(out, candidate{bull, "Bullish OB", tf, model.ZoneSupport})
		}
		if haveBear {
			out = append(out, candidate{bear, "Bearish OB", tf, model.ZoneResistance})
		}
	}
	if e.p.ShowVolumeProfile {
		if vwap, poc, ok := volumeProfile(s, volProfilePeriod); ok {
			zt := model.ZoneSupport
			if vwap > price {
				zt = model.ZoneResistance
			}
			out = append(out, candidate{vwap, "VWAP", tf, zt})
			zt = model.ZoneSupport
			if poc > price {
				zt = model.ZoneResistance
			}
			out = append(out, candidate{poc, "POC", tf, zt})
		}
	}
	if e.p.ShowPsychological {
		for _, lvl := range psychologicalLevels(price, e.p.ShowWithinPercent) {
			zt := model.ZoneSupport
			if lvl > price {
				zt = model.ZoneResistance
			}
			out = append(out, candidate{lvl, "Psychological", tf, zt})
		}
	}
	return out
}
