package srlevels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-systemv1/internal/model"
)

func TestResampleAggregation(t *testing.T) {
	min := int64(60_000)
	s := model.Series{
		{TS: 0 * min, Open: 10, High: 12, Low: 9, Close: 11, Volume: 1},
		{TS: 5 * min, Open: 11, High: 15, Low: 10, Close: 14, Volume: 2},
		{TS: 10 * min, Open: 14, High: 14, Low: 8, Close: 9, Volume: 3},
		{TS: 15 * min, Open: 9, High: 10, Low: 7, Close: 8, Volume: 4},
	}
	got := Resample(s, 15*time.Minute)
	require.Len(t, got, 2)

	assert.Equal(t, int64(0), got[0].TS)
	assert.Equal(t, 10.0, got[0].Open)
	assert.Equal(t, 15.0, got[0].High)
	assert.Equal(t, 8.0, got[0].Low)
	assert.Equal(t, 9.0, got[0].Close)
	assert.Equal(t, 6.0, got[0].Volume)

	assert.Equal(t, 15*min, got[1].TS)
	assert.Equal(t, 4.0, got[1].Volume)
}

func TestResampleIdentityBucket(t *testing.T) {
	s := model.Series{{TS: 0, Close: 1}, {TS: 60_000, Close: 2}}
	got := Resample(s, time.Minute)
	require.Len(t, got, 2)
	assert.Equal(t, s[1].Close, got[1].Close)
}

func TestResampleEmpty(t *testing.T) {
	assert.Empty(t, Resample(nil, time.Minute))
}
