// services/pins/internal/irq/notifier.go
package irq

import (
	"context"
	"sync/atomic"

	"pinmux-go/bus"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/types"
)

const (
	TopicPin    = "pin"
	TopicNotify = "notify"
)

// PinTopic is where events from one source with one value are published.
func PinTopic(source uint16, value int) bus.Topic {
	return bus.T(TopicPin, int(source), value)
}

// NotifyTopic is where system notifications are published.
func NotifyTopic(value int) bus.Topic {
	return bus.T(TopicNotify, value)
}

// Notifier moves events out of interrupt context onto the bus.
type Notifier struct {
	// Written by ISR; MUST NOT block the ISR:
	isrQ    chan core.Event
	conn    *bus.Connection
	stopped chan struct{}

	drops     atomic.Uint32 // ISR drop counter
	delivered atomic.Uint32
}

func NewNotifier(conn *bus.Connection, isrBuf int) *Notifier {
	if isrBuf <= 0 {
		isrBuf = 32
	}
	return &Notifier{
		isrQ:    make(chan core.Event, isrBuf),
		conn:    conn,
		stopped: make(chan struct{}),
	}
}

// Emit queues ev without blocking. It reports false if the queue was full.
func (n *Notifier) Emit(ev core.Event) bool {
	select {
	case n.isrQ <- ev:
		return true
	default:
		n.drops.Add(1)
		return false
	}
}

// Start runs the pump until ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	go func() {
		defer close(n.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-n.isrQ:
				n.publish(ev)
			}
		}
	}()
}

func (n *Notifier) publish(ev core.Event) {
	topic := PinTopic(ev.Source, ev.Value)
	if ev.Source == types.NotifySource {
		topic = NotifyTopic(ev.Value)
	}
	n.conn.Publish(n.conn.NewMessage(topic, types.PinEvent{Source: ev.Source, Value: ev.Value, TsUs: ev.TsUs, DurationUs: ev.DurationUs}, false))
	n.delivered.Add(1)
}

// Stopped is closed once the pump has exited.
func (n *Notifier) Stopped() <-chan struct{} { return n.stopped }

func (n *Notifier) ISRDrops() uint32  { return n.drops.Load() }
func (n *Notifier) Delivered() uint32 { return n.delivered.Load() }
