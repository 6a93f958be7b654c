// Package strategy defines the closed set of signal strategies the monitor
// can run. Strategies are selected by name at configuration time; there is
// no runtime type inspection of the active strategy.
package strategy

import (
	"fmt"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/srlevels"
)

// Output is one strategy evaluation over a series: the per-bar trailing-stop
// columns plus optional S/R zones for the latest bar.
type Output struct {
	Trailing indicator.TrailingStopResult
	Zones    []model.SRZone
}

// Strategy computes signal columns for a candle series. Implementations are
// stateless and safe for concurrent use across targets.
type Strategy interface {
	Name() string
	ComputeSignals(series model.Series, timeframe string) (Output, error)
}

// Config selects and parameterizes a strategy.
type Config struct {
	Name     string
	Trailing indicator.TrailingStopParams
	SR       srlevels.Params
}

// New builds a strategy from the closed set: "utbot" (trailing stop only)
// and "utbot_sr" (trailing stop enriched with S/R zones).
func New(cfg Config) (Strategy, error) {
	switch cfg.Name {
	case "utbot":
		return &UTBot{params: cfg.Trailing}, nil
	case "utbot_sr":
		return &UTBot{params: cfg.Trailing, sr: srlevels.New(cfg.SR)}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Name)
	}
}
