package srlevels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-systemv1/internal/model"
)

func TestSwingPoints(t *testing.T) {
	// A single peak at index 5 and trough at index 11 in otherwise flat data.
	s := make(model.Series, 16)
	for i := range s {
		s[i] = model.Candle{TS: int64(i), High: float64(100 - i), Low: float64(50 + i)}
	}
	s[5].High = 200
	s[11].Low = 1
	highs, lows := swingPoints(s, 3, 3)
	require.Len(t, highs, 1)
	assert.Equal(t, 200.0, highs[0])
	require.Len(t, lows, 1)
	assert.Equal(t, 1.0, lows[0])
}

func TestPsychologicalLevels(t *testing.T) {
	got := psychologicalLevels(50000, 2.5)
	assert.Equal(t, []float64{48000, 49000, 51000, 52000}, got)

	got = psychologicalLevels(5, 2.5)
	for _, lvl := range got {
		assert.NotEqual(t, 5.0, lvl)
	}
	assert.NotEmpty(t, got)
}

func TestPivotLevels(t *testing.T) {
	s := model.Series{{TS: 1, High: 110, Low: 90, Close: 100}}
	p, s1, r1, ok := pivotLevels(s)
	require.True(t, ok)
	assert.Equal(t, 100.0, p)
	assert.Equal(t, 90.0, s1)
	assert.Equal(t, 110.0, r1)
}

func TestOrderBlocks(t *testing.T) {
	s := model.Series{
		{TS: 1, Open: 10, High: 11, Low: 9, Close: 10},
		{TS: 2, Open: 10, High: 10.5, Low: 9, Close: 9.5},  // down bar
		{TS: 3, Open: 9.5, High: 12, Low: 9.4, Close: 11},  // closes above prior high
	}
	bull, _, haveBull, haveBear := orderBlocks(s)
	require.True(t, haveBull)
	assert.Equal(t, 9.0, bull)
	assert.False(t, haveBear)
}

// Psychological levels are price-derived, so each configured timeframe
// contributes the same grid and the cluster confluence equals the timeframe
// count.
func TestEngineComputePsychologicalOnly(t *testing.T) {
	p := DefaultParams()
	p.ShowSwings = false
	e := New(p)

	s := make(model.Series, 120)
	for i := range s {
		s[i] = model.Candle{TS: int64(i) * 300_000, Open: 50000, High: 50000, Low: 50000, Close: 50000, Volume: 1}
	}

	zones, err := e.Compute(s, "5m")
	require.NoError(t, err)
	require.Len(t, zones, 2)
	levels := []float64{zones[0].Level, zones[1].Level}
	assert.ElementsMatch(t, []float64{49000, 51000}, levels)
	for _, z := range zones {
		assert.Equal(t, 3, z.Confluence)
	}
}

func TestEngineComputeEmptySeries(t *testing.T) {
	e := New(DefaultParams())
	_, err := e.Compute(nil, "5m")
	assert.Error(t, err)
}
