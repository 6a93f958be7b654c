package strategy

import (
	"testing"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/srlevels"
)

func testConfig(name string) Config {
	return Config{
		Name: name,
		Trailing: indicator.TrailingStopParams{
			MAType:      indicator.SMA,
			MAPeriod:    3,
			ATRPeriod:   11,
			Multiplier:  0.5,
			PriceSource: indicator.SourceClose,
			AllowBuy:    true,
			AllowSell:   true,
		},
		SR: srlevels.DefaultParams(),
	}
}

func reversalSeries() model.Series {
	s := make(model.Series, 100)
	for i := range s {
		var c float64
		if i < 60 {
			c = float64(100 - i)
		} else {
			c = float64(41 + 2*(i-59))
		}
		s[i] = model.Candle{TS: int64(i) * 60_000, Open: c, High: c + 3, Low: c - 3, Close: c, Volume: 1}
	}
	return s
}

func TestFactoryClosedSet(t *testing.T) {
	for _, name := range []string{"utbot", "utbot_sr"} {
		s, err := New(testConfig(name))
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("want name %q, got %q", name, s.Name())
		}
	}
	if _, err := New(testConfig("momentum")); err == nil {
		t.Fatal("want error for unknown strategy")
	}
}

func TestUTBotComputeSignals(t *testing.T) {
	s, err := New(testConfig("utbot"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := s.ComputeSignals(reversalSeries(), "1m")
	if err != nil {
		t.Fatal(err)
	}
	if out.Trailing.Len() != 100 {
		t.Fatalf("want 100 rows, got %d", out.Trailing.Len())
	}
	if !out.Trailing.Buy[61] {
		t.Error("expected buy edge on the trend reversal bar")
	}
	if len(out.Zones) != 0 {
		t.Errorf("plain utbot must not attach zones, got %d", len(out.Zones))
	}
}

func TestUTBotInsufficientHistory(t *testing.T) {
	s, err := New(testConfig("utbot"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ComputeSignals(reversalSeries()[:5], "1m"); err == nil {
		t.Fatal("want error for short series")
	}
}
