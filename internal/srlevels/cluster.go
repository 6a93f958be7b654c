package srlevels

import (
	"math"
	"sort"

	"signal-systemv1/internal/model"
)

// SortKey selects the zone ranking order.
type SortKey string

const (
	SortConfluence SortKey = "Confluence"
	SortReactions  SortKey = "Reactions"
	SortDistance   SortKey = "Distance"
)

// clusterCandidates greedily merges candidates into zones. A candidate joins
// the first existing zone whose running level is within clusterPct of it
// (relative to the current price), otherwise it starts a new zone. The zone
// level is the running mean of merged candidates, the band expands to cover
// each merged level, and confluence counts the merges.
func clusterCandidates(cands []candidate, price, clusterPct float64) []model.SRZone {
	var zones []model.SRZone
	for _, c := range cands {
		if math.IsNaN(c.Level) {
			continue
		}
		merged := false
		for i := range zones {
			z := &zones[i]
			if math.Abs(z.Level-c.Level)/price*100 < clusterPct {
				z.Top = math.Max(z.Top, c.Level)
				z.Bottom = math.Min(z.Bottom, c.Level)
				z.Level = (z.Level + c.Level) / 2
				z.Confluence++
				z.Methods = append(z.Methods, c.Method)
				z.Timeframes = append(z.Timeframes, c.Timeframe)
				if c.Type != z.Type {
					z.Type = model.ZoneMixed
				}
				merged = true
				break
			}
		}
		if !merged {
			zones = append(zones, model.SRZone{
				Level:      c.Level,
				Top:        c.Level,
				Bottom:     c.Level,
				Type:       c.Type,
				Confluence: 1,
				Methods:    []string{c.Method},
				Timeframes: []string{c.Timeframe},
			})
		}
	}
	return zones
}

// countReactions counts closes inside the zone band over the last lookback
// bars of the base series. Series shorter than the lookback yield 0.
func countReactions(s model.Series, top, bottom float64, lookback int) int {
	if len(s) < lookback {
		return 0
	}
	n := 0
	for _, c := range s[len(s)-lookback:] {
		if c.Close >= bottom && c.Close <= top {
			n++
		}
	}
	return n
}

// rankZones filters zones to those within withinPct of price with confluence
// of at least minConfluence, sorts by the requested key and truncates to topN.
func rankZones(zones []model.SRZone, price, withinPct float64, minConfluence, topN int, key SortKey) []model.SRZone {
	kept := make([]model.SRZone, 0, len(zones))
	for _, z := range zones {
		if z.DistancePct(price) <= withinPct && z.Confluence >= minConfluence {
			kept = append(kept, z)
		}
	}
	switch key {
	case SortReactions:
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].Reactions > kept[j].Reactions })
	case SortDistance:
		sort.SliceStable(kept, func(i, j int) bool {
			return math.Abs(kept[i].Level-price) < math.Abs(kept[j].Level-price)
		})
	default:
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confluence > kept[j].Confluence })
	}
	if len(kept) > topN {
		kept = kept[:topN]
	}
	return kept
}
