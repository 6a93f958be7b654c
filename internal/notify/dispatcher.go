package notify

import (
	"context"
	"log"
	"log/slog"
	"time"

	"signal-systemv1/internal/model"
)

const sinkTimeout = 5 * time.Second

// Broadcaster fans a serialized envelope out to connected subscribers.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Notifier delivers an envelope to an external channel (Telegram, logs).
type Notifier interface {
	Send(ctx context.Context, env Envelope) error
}

// SignalSink receives serialized signal envelopes keyed by target (Redis).
type SignalSink interface {
	PublishSignal(ctx context.Context, targetKey string, envelope []byte) error
}

// EventJournal persists structured signal events (SQLite).
type EventJournal interface {
	Insert(e model.SignalEvent) error
}

// Dispatcher is the single consumer of the bridge. All subscriber-facing
// sends happen on this one goroutine; workers never touch a sink directly.
// Sink failures are isolated: one failing backend never blocks the others.
type Dispatcher struct {
	bridge    *Bridge
	hub       Broadcaster
	notifiers []Notifier
	sink      SignalSink
	journal   EventJournal

	onDispatch func(Message) // metrics hook, may be nil
}

type DispatcherOption func(*Dispatcher)

func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifiers = append(d.notifiers, n) }
}

func WithSignalSink(s SignalSink) DispatcherOption {
	return func(d *Dispatcher) { d.sink = s }
}

func WithJournal(j EventJournal) DispatcherOption {
	return func(d *Dispatcher) { d.journal = j }
}

func WithDispatchHook(fn func(Message)) DispatcherOption {
	return func(d *Dispatcher) { d.onDispatch = fn }
}

func NewDispatcher(bridge *Bridge, hub Broadcaster, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{bridge: bridge, hub: hub}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run consumes the bridge until it is closed, then drains the remainder and
// returns. Drain errors during shutdown are logged, never propagated.
func (d *Dispatcher) Run(ctx context.Context) {
	for msg := range d.bridge.C() {
		d.dispatch(ctx, msg)
	}
	if n := d.bridge.Dropped(); n > 0 {
		slog.Warn("bridge dropped messages on full queue", "count", n)
	}
	log.Printf("[dispatch] bridge drained, dispatcher stopped")
}

func (d *Dispatcher) dispatch(ctx context.Context, msg Message) {
	raw, err := msg.Env.JSON()
	if err != nil {
		slog.Error("envelope marshal failed", "err", err)
		return
	}

	if d.hub != nil {
		d.hub.Broadcast(raw)
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	for _, n := range d.notifiers {
		if err := n.Send(sendCtx, msg.Env); err != nil {
			slog.Error("notifier send failed", "err", err)
		}
	}

	if msg.Event != nil {
		if d.sink != nil {
			if err := d.sink.PublishSignal(sendCtx, msg.Event.Target.Key(), raw); err != nil {
				slog.Error("signal sink publish failed", "target", msg.Event.Target.Key(), "err", err)
			}
		}
		if d.journal != nil {
			if err := d.journal.Insert(*msg.Event); err != nil {
				slog.Error("signal journal insert failed", "target", msg.Event.Target.Key(), "err", err)
			}
		}
	}

	if d.onDispatch != nil {
		d.onDispatch(msg)
	}
}
