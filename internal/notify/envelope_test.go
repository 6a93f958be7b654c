package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-systemv1/internal/model"
)

func testEvent() model.SignalEvent {
	return model.SignalEvent{
		ID: "evt-1",
		Target: model.Target{
			Exchange:  "binance",
			Symbol:    "BTCUSDT",
			Timeframe: "1m",
		},
		Type:      model.SignalBuy,
		Price:     50000.5,
		BarTime:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EmittedAt: time.Date(2025, 6, 1, 12, 0, 30, 0, time.UTC),
	}
}

// The envelope field names are a wire contract with external consumers;
// this test pins them byte-for-byte.
func TestSignalEnvelopeWireShape(t *testing.T) {
	raw, err := SignalEnvelope(testEvent()).JSON()
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "notification", m["type"])
	assert.Equal(t, "WARNING", m["level"])
	assert.Equal(t, "TradingSystem", m["source"])
	assert.Equal(t, "2025-06-01T12:00:30Z", m["timestamp"])

	data, ok := m["data"].(map[string]interface{})
	require.True(t, ok, "data payload missing")
	assert.Equal(t, "binance", data["exchange"])
	assert.Equal(t, "BTCUSDT", data["symbol"])
	assert.Equal(t, "1m", data["timeframe"])
	assert.Equal(t, 50000.5, data["price"])
	assert.Equal(t, "2025-06-01T12:00:00Z", data["timestamp"])
	assert.Equal(t, "binance_BTCUSDT_1m", data["target_key"])
	assert.Equal(t, "BUY", data["signal_type"])
}

func TestSignalMessageFormat(t *testing.T) {
	assert.Equal(t,
		"🟢 BUY SIGNAL - BINANCE BTCUSDT (1m) @ 50000.5",
		SignalMessage(testEvent()))

	e := testEvent()
	e.Type = model.SignalSell
	assert.Equal(t,
		"🔴 SELL SIGNAL - BINANCE BTCUSDT (1m) @ 50000.5",
		SignalMessage(e))
}

func TestWelcomeEnvelope(t *testing.T) {
	raw, err := Welcome(3).JSON()
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "welcome", m["type"])
	assert.Equal(t, "TradingSystem", m["source"])
	data := m["data"].(map[string]interface{})
	assert.Equal(t, 3.0, data["client_count"])
}
