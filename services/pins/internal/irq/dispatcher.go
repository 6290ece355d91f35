// services/pins/internal/irq/dispatcher.go
package irq

import (
	"sync/atomic"

	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/regs"
	"pinmux-go/types"
	"pinmux-go/x/bitx"
)

// Target is a pin as seen from interrupt context. All methods must be safe
// to call from the ISR and must not block.
type Target interface {
	EdgeArmed() bool
	WakeOnActive() bool
	Rise()
	Fall()
}

type slot struct{ t Target }

// Dispatcher demultiplexes the shared port interrupt onto pins.
type Dispatcher struct {
	hw         regs.Silicon
	out        core.Emitter
	clock      core.Clock
	sleepPend  func() bool
	table      [regs.MaxPins]atomic.Pointer[slot]
	dispatched atomic.Uint32
}

func NewDispatcher(hw regs.Silicon, out core.Emitter, clock core.Clock, sleepPending func() bool) *Dispatcher {
	if sleepPending == nil {
		sleepPending = func() bool { return false }
	}
	return &Dispatcher{hw: hw, out: out, clock: clock, sleepPend: sleepPending}
}

// Register binds a physical pin index to t. Indices outside the pin space
// are a board description error and panic.
func (d *Dispatcher) Register(number int, t Target) {
	if number < 0 || number >= regs.MaxPins {
		panic("irq: pin index out of range")
	}
	d.table[number].Store(&slot{t: t})
}

// Unregister clears a table entry.
func (d *Dispatcher) Unregister(number int) {
	if number >= 0 && number < regs.MaxPins {
		d.table[number].Store(nil)
	}
}

// Lookup returns the target for a pin index, or nil.
func (d *Dispatcher) Lookup(number int) Target {
	if number < 0 || number >= regs.MaxPins {
		return nil
	}
	if s := d.table[number].Load(); s != nil {
		return s.t
	}
	return nil
}

// Enable installs Handle as the port interrupt handler.
func (d *Dispatcher) Enable() {
	d.hw.Events().EnablePortIRQ(d.Handle)
}

// Handle services one port event. Latched pins are visited highest bit
// first; each port's latch is cleared once all its pins were visited.
func (d *Dispatcher) Handle() {
	ev := d.hw.Events()
	if !ev.PortEventPending() {
		return
	}
	ev.AckPortEvent()

	for port := 0; port < regs.PortCount; port++ {
		p := d.hw.Port(port)
		base := port * regs.PinsPerPort
		bitx.EachHighToLow(p.Latch(), func(bit int) {
			t := d.Lookup(base + bit)
			if t == nil {
				return
			}
			d.dispatched.Add(1)
			if t.EdgeArmed() {
				cnf := p.PinCnf(bit) ^ regs.CnfSenseFlip
				p.SetPinCnf(bit, cnf)
				// now sensing low: the line just went high
				if cnf&regs.CnfSenseFlip != 0 {
					t.Rise()
				} else {
					t.Fall()
				}
			}
			if t.WakeOnActive() && d.sleepPend() {
				d.out.Emit(core.Event{Source: types.NotifySource, Value: types.NotifyCancelDeepSleep, TsUs: d.clock.NowUs()})
			}
		})
		p.ClearLatch(0xffffffff)
	}
}

// Dispatched counts latched pins that had a registered target.
func (d *Dispatcher) Dispatched() uint32 { return d.dispatched.Load() }
