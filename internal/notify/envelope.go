// Package notify carries generated signals from worker goroutines to the
// delivery backends: the envelope wire contract, the bounded hand-off bridge,
// the single-consumer dispatcher and the Telegram notifier.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"signal-systemv1/internal/model"
)

// envelopeSource identifies this system to downstream consumers. The value
// is a compatibility contract with existing dashboards; do not change it.
const envelopeSource = "TradingSystem"

// Level is the envelope severity.
type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

// Envelope is the JSON shape every published message uses. Field names are a
// wire contract shared with external consumers and must stay byte-for-byte
// stable.
type Envelope struct {
	Type      string      `json:"type"`
	Level     Level       `json:"level,omitempty"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Source    string      `json:"source"`
}

// SignalData is the data payload of a signal envelope.
type SignalData struct {
	Exchange   string  `json:"exchange"`
	Symbol     string  `json:"symbol"`
	Timeframe  string  `json:"timeframe"`
	Price      float64 `json:"price"`
	Timestamp  string  `json:"timestamp"`
	TargetKey  string  `json:"target_key"`
	SignalType string  `json:"signal_type"`
}

// JSON serializes the envelope.
func (e Envelope) JSON() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return b, nil
}

// SignalMessage renders the human-readable signal line used in both the
// envelope message and chat notifications.
func SignalMessage(e model.SignalEvent) string {
	icon := "🟢"
	if e.Type == model.SignalSell {
		icon = "🔴"
	}
	return fmt.Sprintf("%s %s SIGNAL - %s %s (%s) @ %v",
		icon,
		strings.ToUpper(string(e.Type)),
		strings.ToUpper(e.Target.Exchange),
		e.Target.Symbol,
		e.Target.Timeframe,
		e.Price)
}

// SignalEnvelope wraps a signal event in the publish contract.
func SignalEnvelope(e model.SignalEvent) Envelope {
	return Envelope{
		Type:      "notification",
		Level:     LevelWarning,
		Message:   SignalMessage(e),
		Timestamp: e.EmittedAt.UTC().Format(time.RFC3339),
		Data: SignalData{
			Exchange:   e.Target.Exchange,
			Symbol:     e.Target.Symbol,
			Timeframe:  e.Target.Timeframe,
			Price:      e.Price,
			Timestamp:  e.BarTime.UTC().Format(time.RFC3339),
			TargetKey:  e.Target.Key(),
			SignalType: strings.ToUpper(string(e.Type)),
		},
		Source: envelopeSource,
	}
}

// Notification builds a lifecycle envelope (startup, batch summary, errors).
func Notification(level Level, message string) Envelope {
	return Envelope{
		Type:      "notification",
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    envelopeSource,
	}
}

// Welcome builds the envelope sent to a client right after it connects.
func Welcome(clientCount int) Envelope {
	now := time.Now().UTC()
	return Envelope{
		Type:      "welcome",
		Message:   fmt.Sprintf("connected at %s", now.Format("2006-01-02 15:04:05")),
		Timestamp: now.Format(time.RFC3339),
		Data:      map[string]int{"client_count": clientCount},
		Source:    envelopeSource,
	}
}
