package strategy

import (
	"fmt"
	"log/slog"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/srlevels"
)

// UTBot is the ATR trailing-stop strategy, optionally enriched with
// multi-timeframe S/R zones for the latest bar.
type UTBot struct {
	params indicator.TrailingStopParams
	sr     *srlevels.Engine // nil when enrichment is disabled
}

func (s *UTBot) Name() string {
	if s.sr != nil {
		return "utbot_sr"
	}
	return "utbot"
}

func (s *UTBot) ComputeSignals(series model.Series, timeframe string) (Output, error) {
	res, err := indicator.TrailingStop(series, s.params)
	if err != nil {
		return Output{}, fmt.Errorf("trailing stop: %w", err)
	}
	out := Output{Trailing: res}
	if s.sr != nil {
		zones, err := s.sr.Compute(series, timeframe)
		if err != nil {
			// Zones are enrichment only; a failed S/R pass never suppresses
			// the trailing-stop signal.
			slog.Warn("sr zones unavailable", "timeframe", timeframe, "err", err)
		} else {
			out.Zones = zones
		}
	}
	return out, nil
}
