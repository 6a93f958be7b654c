package model

import "time"

// SignalState is the per-target position of the trend state machine.
type SignalState string

const (
	StateFlat  SignalState = "flat"
	StateLong  SignalState = "long"
	StateShort SignalState = "short"
)

// SignalType labels an emitted transition.
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
)

// SignalEvent is one edge-triggered state transition for a target. Events
// carry everything a downstream consumer needs to render or store the signal
// without re-reading market data.
type SignalEvent struct {
	ID        string     `json:"id"`
	Target    Target     `json:"target"`
	Type      SignalType `json:"signal_type"`
	Price     float64    `json:"price"`
	BarTime   time.Time  `json:"bar_time"`
	EmittedAt time.Time  `json:"emitted_at"`
	Zones     []SRZone   `json:"zones,omitempty"`
}

// State returns the state the machine entered when this event fired.
func (e SignalEvent) State() SignalState {
	if e.Type == SignalBuy {
		return StateLong
	}
	return StateShort
}
