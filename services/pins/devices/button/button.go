// Package button debounces a digital level into press/release events.
package button

import (
	"sync"

	"pinmux-go/services/pins/internal/core"
	"pinmux-go/types"
)

// Debounce integrator bounds and hysteresis thresholds.
const (
	SigmaMin     = 0
	SigmaMax     = 12
	SigmaLow     = 2
	SigmaHigh    = 8
	LongClickUs  = 1_000_000
	HoldUs       = 1_500_000
	TickPeriodUs = 6_000
)

// Config describes how the line maps to "pressed".
type Config struct {
	ID        uint16
	ActiveLow bool
	// Read returns the raw line level.
	Read func() bool
}

// Button is a debounced button fed by periodic Tick calls.
type Button struct {
	cfg    Config
	out    core.Emitter
	cancel func()

	mu       sync.Mutex
	sigma    int
	pressed  bool
	held     bool
	downAtUs uint64
	count    int
}

// New starts sampling through sched; events go to out.
func New(cfg Config, out core.Emitter, sched core.Scheduler) *Button {
	b := &Button{cfg: cfg, out: out}
	b.cancel = sched.Every(b)
	return b
}

func (b *Button) active() bool {
	return b.cfg.Read() != b.cfg.ActiveLow
}

func (b *Button) emit(value int, now uint64) {
	if b.out != nil {
		b.out.Emit(core.Event{Source: b.cfg.ID, Value: value, TsUs: now})
	}
}

// Tick samples the line once.
func (b *Button) Tick(now uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active() {
		if b.sigma < SigmaMax {
			b.sigma++
		}
	} else if b.sigma > SigmaMin {
		b.sigma--
	}

	switch {
	case b.sigma > SigmaHigh && !b.pressed:
		b.pressed, b.held = true, false
		b.downAtUs = now
		b.count++
		b.emit(types.ButtonEvtDown, now)
	case b.sigma < SigmaLow && b.pressed:
		b.pressed = false
		b.emit(types.ButtonEvtUp, now)
		if now-b.downAtUs >= LongClickUs {
			b.emit(types.ButtonEvtLongClick, now)
		} else {
			b.emit(types.ButtonEvtClick, now)
		}
	case b.pressed && !b.held && now-b.downAtUs >= HoldUs:
		b.held = true
		b.emit(types.ButtonEvtHold, now)
	}
}

// IsPressed reports the debounced state.
func (b *Button) IsPressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// WasPressed returns the number of presses since the last call.
func (b *Button) WasPressed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.count
	b.count = 0
	return n
}

// Calibrate is a no-op for a resistive button.
func (b *Button) Calibrate() {}

// ReleasePin stops sampling.
func (b *Button) ReleasePin(core.PinRef) error {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	return nil
}

func (b *Button) IsPinLocked() bool { return false }
