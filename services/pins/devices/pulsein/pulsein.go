// Package pulsein measures pulse widths from edge timestamps.
package pulsein

import (
	"context"
	"sync/atomic"
	"time"

	"pinmux-go/bus"
	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/irq"
	"pinmux-go/types"
)

// PulseIn holds the timestamp of the last edge on a pin. The edge handlers
// update it from interrupt context; AwaitPulse consumes the resulting
// pulse events from the bus.
type PulseIn struct {
	id       uint16
	conn     *bus.Connection
	clock    core.Clock
	lastEdge atomic.Uint64
	released atomic.Bool
}

func New(id uint16, conn *bus.Connection, clock core.Clock) *PulseIn {
	p := &PulseIn{id: id, conn: conn, clock: clock}
	p.lastEdge.Store(clock.NowUs())
	return p
}

func (p *PulseIn) LastEdge() uint64 { return p.lastEdge.Load() }

// SwapLastEdge records now as the last edge and returns the previous one.
func (p *PulseIn) SwapLastEdge(now uint64) uint64 { return p.lastEdge.Swap(now) }

// AwaitPulse blocks until a pulse of the given level completes and returns
// its width in microseconds. It returns errcode.Cancelled once timeout has
// elapsed or ctx is done.
func (p *PulseIn) AwaitPulse(ctx context.Context, timeout time.Duration, high bool) (uint32, error) {
	if p.released.Load() {
		return 0, errcode.Cancelled
	}
	want := types.EvtPulseLo
	if high {
		want = types.EvtPulseHi
	}
	sub := p.conn.Subscribe(irq.PinTopic(p.id, want))
	defer p.conn.Unsubscribe(sub)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case m, ok := <-sub.Channel():
			if !ok {
				return 0, errcode.Cancelled
			}
			ev, ok := m.Payload.(types.PinEvent)
			if !ok {
				continue
			}
			return ev.DurationUs, nil
		case <-timer.C:
			return 0, errcode.Cancelled
		case <-ctx.Done():
			return 0, errcode.Cancelled
		}
	}
}

func (p *PulseIn) ReleasePin(core.PinRef) error {
	p.released.Store(true)
	return nil
}

func (p *PulseIn) IsPinLocked() bool { return false }
