package monitor

import (
	"context"
	"log/slog"
	"time"
)

const errorCooldown = 5 * time.Second

// NextTriggerDelay computes how long to sleep until the next wall-clock
// instant whose second-of-minute equals triggerSecond. If that instant is
// not strictly in the future, it advances by periodMinutes.
func NextTriggerDelay(now time.Time, periodMinutes, triggerSecond int) time.Duration {
	target := now.Truncate(time.Minute).Add(time.Duration(triggerSecond) * time.Second)
	if !target.After(now) {
		target = target.Add(time.Duration(periodMinutes) * time.Minute)
	}
	return target.Sub(now)
}

// Scheduler runs a cycle function at every trigger instant until cancelled.
// A failed cycle is logged and followed by a fixed cooldown before the next
// trigger is computed; the loop itself only exits on shutdown.
type Scheduler struct {
	PeriodMinutes int
	TriggerSecond int
	Cycle         func(ctx context.Context) error
}

func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started",
		"period_minutes", s.PeriodMinutes,
		"trigger_second", s.TriggerSecond)
	timer := time.NewTimer(NextTriggerDelay(time.Now(), s.PeriodMinutes, s.TriggerSecond))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		if err := s.Cycle(ctx); err != nil {
			slog.Error("cycle failed", "err", err)
			select {
			case <-ctx.Done():
				slog.Info("scheduler stopped")
				return
			case <-time.After(errorCooldown):
			}
		}

		timer.Reset(NextTriggerDelay(time.Now(), s.PeriodMinutes, s.TriggerSecond))
	}
}
