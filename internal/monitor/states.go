// Package monitor drives the signal pipeline: a wall-clock batch scheduler,
// a bounded worker pool over the enabled targets, and the per-target signal
// state machine that turns indicator edges into emitted events.
package monitor

import (
	"sync"

	"signal-systemv1/internal/model"
)

// StateMap holds per-target signal state behind a mutex. States are created
// lazily as flat and live for the process lifetime; callers interact only
// through Get/Transition, the map itself is never exposed.
type StateMap struct {
	mu     sync.Mutex
	states map[string]model.SignalState
}

func NewStateMap() *StateMap {
	return &StateMap{states: make(map[string]model.SignalState)}
}

// Get returns the current state for a target key.
func (m *StateMap) Get(key string) model.SignalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(key)
}

func (m *StateMap) get(key string) model.SignalState {
	s, ok := m.states[key]
	if !ok {
		s = model.StateFlat
		m.states[key] = s
	}
	return s
}

// Transition applies the latest bar's edges to the target's state. A buy
// edge moves flat/short to long, a sell edge moves flat/long to short;
// anything else is a no-op. The returned signal type is valid only when the
// second result is true — edges that match the current state emit nothing.
func (m *StateMap) Transition(key string, buy, sell bool) (model.SignalType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.get(key)
	switch {
	case buy && cur != model.StateLong:
		m.states[key] = model.StateLong
		return model.SignalBuy, true
	case sell && cur != model.StateShort:
		m.states[key] = model.StateShort
		return model.SignalSell, true
	default:
		return "", false
	}
}

// Snapshot copies the current states for health reporting.
func (m *StateMap) Snapshot() map[string]model.SignalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.SignalState, len(m.states))
	for k, v := range m.states {
		out[k] = v
	}
	return out
}
