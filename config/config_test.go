package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
targets:
  - exchange: binance
    symbol: BTCUSDT
    timeframe: 1m
    enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultTriggerSecond, cfg.TriggerSecond)
	assert.Equal(t, DefaultFetchLimit, cfg.FetchLimit)
	assert.Equal(t, DefaultMaxWorkers, cfg.MaxWorkers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "utbot", cfg.Strategy)
	assert.Equal(t, "HMA", cfg.Indicator.MAType)
	assert.Equal(t, 11, cfg.Indicator.ATRPeriod)
	assert.Equal(t, []string{"15", "60", "240"}, cfg.SR.Timeframes)
	assert.True(t, cfg.PersistDerived)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, "binance_BTCUSDT_1m", cfg.Targets[0].Key())
}

func TestLoadCorrectsInvalidNumbers(t *testing.T) {
	path := writeConfig(t, `
triggerSecond: 75
fetchLimit: -3
maxWorkers: 9999
tailCalc: 200
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultTriggerSecond, cfg.TriggerSecond)
	assert.Equal(t, DefaultFetchLimit, cfg.FetchLimit)
	assert.Equal(t, DefaultMaxWorkers, cfg.MaxWorkers)
	// Valid values pass through untouched.
	assert.Equal(t, 200, cfg.TailCalc)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSRStrategySuffix(t *testing.T) {
	path := writeConfig(t, `
strategy: utbot
sr:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "utbot_sr", cfg.Strategy)
}

func TestEnabledTargetsFiltersByExchange(t *testing.T) {
	path := writeConfig(t, `
exchanges:
  binance:
    enabled: true
targets:
  - exchange: binance
    symbol: BTCUSDT
    timeframe: 1m
    enabled: true
  - exchange: binance
    symbol: ETHUSDT
    timeframe: 5m
    enabled: false
  - exchange: kraken
    symbol: XBTUSD
    timeframe: 1m
    enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	got := cfg.EnabledTargets()
	require.Len(t, got, 1)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)
}
