package monitor

import (
	"sync"
	"testing"

	"signal-systemv1/internal/model"
)

func TestStateMapLazyFlat(t *testing.T) {
	m := NewStateMap()
	if got := m.Get("binance_BTCUSDT_1m"); got != model.StateFlat {
		t.Fatalf("want flat initial state, got %v", got)
	}
}

// A buy edge sequence [false,true,true,false] must emit exactly one event:
// the second true matches the already-long state and is a no-op.
func TestStateMapSingleEmitPerDirection(t *testing.T) {
	m := NewStateMap()
	key := "binance_BTCUSDT_1m"
	emitted := 0
	for _, buy := range []bool{false, true, true, false} {
		if _, fired := m.Transition(key, buy, false); fired {
			emitted++
		}
	}
	if emitted != 1 {
		t.Fatalf("want exactly 1 emission, got %d", emitted)
	}
	if got := m.Get(key); got != model.StateLong {
		t.Fatalf("want long after buy edges, got %v", got)
	}
}

func TestStateMapDirectionFlip(t *testing.T) {
	m := NewStateMap()
	key := "k"

	sig, fired := m.Transition(key, true, false)
	if !fired || sig != model.SignalBuy {
		t.Fatalf("want BUY, got %v fired=%v", sig, fired)
	}
	sig, fired = m.Transition(key, false, true)
	if !fired || sig != model.SignalSell {
		t.Fatalf("want SELL, got %v fired=%v", sig, fired)
	}
	if _, fired = m.Transition(key, false, true); fired {
		t.Fatal("repeated sell edge must not emit")
	}
}

func TestStateMapNoEdgeNoTransition(t *testing.T) {
	m := NewStateMap()
	if _, fired := m.Transition("k", false, false); fired {
		t.Fatal("no edge must not emit")
	}
	if got := m.Get("k"); got != model.StateFlat {
		t.Fatalf("state changed without edge: %v", got)
	}
}

func TestStateMapConcurrentAccess(t *testing.T) {
	m := NewStateMap()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%4))
			for j := 0; j < 100; j++ {
				m.Transition(key, j%2 == 0, j%2 == 1)
				m.Get(key)
			}
		}(i)
	}
	wg.Wait()
	for key, state := range m.Snapshot() {
		if state != model.StateLong && state != model.StateShort {
			t.Errorf("key %q has unexpected state %v", key, state)
		}
	}
}
