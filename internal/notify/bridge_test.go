package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-systemv1/internal/model"
)

func TestBridgeOverflowDropsInsteadOfBlocking(t *testing.T) {
	b := NewBridge(2)
	assert.True(t, b.Push(Notification(LevelInfo, "one")))
	assert.True(t, b.Push(Notification(LevelInfo, "two")))
	assert.False(t, b.Push(Notification(LevelInfo, "three")))
	assert.Equal(t, uint64(1), b.Dropped())
}

func TestBridgeCloseIsIdempotent(t *testing.T) {
	b := NewBridge(1)
	b.Close()
	b.Close()
	_, open := <-b.C()
	assert.False(t, open)
}

type recordingHub struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (h *recordingHub) Broadcast(p []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, p)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

type recordingJournal struct {
	mu     sync.Mutex
	events []model.SignalEvent
}

func (j *recordingJournal) Insert(e model.SignalEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return nil
}

func TestDispatcherFansOutAndDrainsOnClose(t *testing.T) {
	b := NewBridge(16)
	hub := &recordingHub{}
	journal := &recordingJournal{}
	d := NewDispatcher(b, hub, WithJournal(journal))

	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()

	require.True(t, b.PushSignal(testEvent()))
	require.True(t, b.Push(Notification(LevelInfo, "cycle complete")))
	b.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not drain after close")
	}

	assert.Equal(t, 2, hub.count())
	require.Len(t, journal.events, 1)
	assert.Equal(t, "evt-1", journal.events[0].ID)
}
