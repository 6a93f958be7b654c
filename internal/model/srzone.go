package model

// ZoneType classifies a support/resistance zone relative to the detection
// method that produced it. Merging candidates of different types yields Mixed.
type ZoneType string

const (
	ZoneSupport    ZoneType = "support"
	ZoneResistance ZoneType = "resistance"
	ZonePivot      ZoneType = "pivot"
	ZoneMixed      ZoneType = "mixed"
)

// SRZone is one clustered support/resistance zone across timeframes.
type SRZone struct {
	Level      float64  `json:"level"`
	Top        float64  `json:"top"`
	Bottom     float64  `json:"bottom"`
	Type       ZoneType `json:"type"`
	Confluence int      `json:"confluence"`
	Reactions  int      `json:"reactions"`
	Timeframes []string `json:"timeframes"`
	Methods    []string `json:"methods"`
}

// Contains reports whether price lies inside the zone band.
func (z SRZone) Contains(price float64) bool {
	return price >= z.Bottom && price <= z.Top
}

// DistancePct returns the absolute distance from price to the zone level as a
// percentage of price.
func (z SRZone) DistancePct(price float64) float64 {
	if price == 0 {
		return 0
	}
	d := (z.Level - price) / price * 100
	if d < 0 {
		return -d
	}
	return d
}
