package notify

import (
	"sync"
	"sync/atomic"

	"signal-systemv1/internal/model"
)

// Message is one bridge entry: every message carries an envelope, signal
// messages additionally carry the originating event for sinks that persist
// structured fields.
type Message struct {
	Env   Envelope
	Event *model.SignalEvent
}

// Bridge is the thread-safe hand-off between worker goroutines and the
// single dispatcher goroutine. Producers use a non-blocking send: when the
// queue is full the message is dropped and counted rather than stalling a
// worker on a slow consumer.
//
// Close must only be called after all producers have stopped; the monitor's
// shutdown sequence waits for the in-flight batch before closing.
type Bridge struct {
	ch      chan Message
	once    sync.Once
	dropped atomic.Uint64
}

func NewBridge(capacity int) *Bridge {
	if capacity <= 0 {
		capacity = 256
	}
	return &Bridge{ch: make(chan Message, capacity)}
}

// PushSignal enqueues a signal event wrapped in its envelope. Returns false
// when the queue is full.
func (b *Bridge) PushSignal(e model.SignalEvent) bool {
	return b.push(Message{Env: SignalEnvelope(e), Event: &e})
}

// Push enqueues a lifecycle envelope. Returns false when the queue is full.
func (b *Bridge) Push(env Envelope) bool {
	return b.push(Message{Env: env})
}

func (b *Bridge) push(m Message) bool {
	select {
	case b.ch <- m:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// C is the dispatcher's receive side.
func (b *Bridge) C() <-chan Message { return b.ch }

// Close ends the stream; the dispatcher drains whatever is still queued.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.ch) })
}

// Dropped reports how many messages were discarded on a full queue.
func (b *Bridge) Dropped() uint64 { return b.dropped.Load() }
