package pins

import (
	"context"
	"time"

	"pinmux-go/errcode"
	"pinmux-go/services/pins/devices/pulsein"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/regs"
	"pinmux-go/types"
)

// EventType selects what a pin reports on the bus.
type EventType int

const (
	EventNone EventType = iota
	EventOnEdge
	EventOnPulse
	EventOnTouch
	InterruptOnEdge
)

// EventOn configures event generation for the pin.
func (p *Pin) EventOn(t EventType) error {
	switch t {
	case EventOnEdge, EventOnPulse, InterruptOnEdge:
		return p.EnableRiseFallEvents(t)
	case EventOnTouch:
		_, err := p.IsTouched()
		return err
	case EventNone:
		return p.DisableEvents()
	}
	return errcode.InvalidParameter
}

func edgeModeFor(t EventType) EdgeMode {
	switch t {
	case EventOnEdge:
		return EdgeEvents
	case EventOnPulse:
		return EdgePulse
	case InterruptOnEdge:
		return EdgeInterrupt
	}
	return EdgeNone
}

// EnableRiseFallEvents arms edge detection. The sense is set opposite to
// the current level so the next transition is caught.
func (p *Pin) EnableRiseFallEvents(t EventType) error {
	mode := edgeModeFor(t)
	if mode == EdgeNone {
		return errcode.InvalidParameter
	}
	if p.role == RoleTouchIn {
		if err := p.disconnect(); err != nil {
			return err
		}
	}
	cur := p.Edge()
	v := 0
	if cur == EdgeNone {
		var err error
		if v, err = p.GetDigitalValue(); err != nil {
			return err
		}
	}
	if cur != EdgePulse && mode == EdgePulse && p.obj != nil {
		// a locked peripheral still holds the pin
		if p.obj.IsPinLocked() {
			return errcode.Busy
		}
		if err := p.release(); err != nil {
			return err
		}
	}
	if cur == EdgePulse && mode != EdgePulse && p.obj != nil {
		if err := p.release(); err != nil {
			return err
		}
	}
	if cur != EdgePulse && mode == EdgePulse {
		pi := pulsein.New(p.id, p.sys.conn, p.sys.clock)
		p.attach(pi, true)
		p.pulse.Store(pi)
	}
	p.edge.Store(uint32(mode))

	if cur == EdgeNone {
		sense := regs.SenseHigh
		if v != 0 {
			sense = regs.SenseLow
		}
		p.port.SetPinCnf(p.bit, regs.WithSense(p.port.PinCnf(p.bit), sense))
		p.port.ClearLatch(p.mask)
	}
	p.sys.publishState(p)
	return nil
}

// DisableEvents stops edge, pulse and touch reporting.
func (p *Pin) DisableEvents() error {
	if p.Edge() != EdgeNone || p.role == RoleTouchIn {
		err := p.disconnect()
		p.sys.publishState(p)
		return err
	}
	return nil
}

// SetIRQ registers fn to be called from interrupt context with the new
// level when the pin is in InterruptOnEdge mode. nil removes it.
func (p *Pin) SetIRQ(fn func(level int)) {
	if fn == nil {
		p.irqFn.Store(nil)
		return
	}
	p.irqFn.Store(&fn)
}

func (p *Pin) onEdge(level int) {
	switch p.Edge() {
	case EdgePulse:
		// a rise ends a low pulse, a fall ends a high one
		v := types.EvtPulseLo
		if level == 0 {
			v = types.EvtPulseHi
		}
		p.pulseWidthEvent(v)
	case EdgeEvents:
		v := types.EvtRise
		if level == 0 {
			v = types.EvtFall
		}
		p.sys.notifier.Emit(core.Event{Source: p.id, Value: v, TsUs: p.sys.clock.NowUs()})
	case EdgeInterrupt:
		if fn := p.irqFn.Load(); fn != nil {
			(*fn)(level)
		}
	}
}

func (p *Pin) pulseWidthEvent(v int) {
	pi := p.pulse.Load()
	if pi == nil {
		return
	}
	now := p.sys.clock.NowUs()
	// widths wrap after 2^32us, a little over an hour
	width := uint32(now - pi.SwapLastEdge(now))
	p.sys.notifier.Emit(core.Event{Source: p.id, Value: v, TsUs: now, DurationUs: width})
}

// GetPulseUs waits for the next complete pulse at the pin's polarity and
// returns its width. errcode.Cancelled is returned once timeout elapses.
func (p *Pin) GetPulseUs(ctx context.Context, timeout time.Duration) (uint32, error) {
	if _, err := p.GetDigitalValue(); err != nil {
		return 0, err
	}
	if p.Edge() != EdgePulse {
		if err := p.EventOn(EventOnPulse); err != nil {
			return 0, err
		}
	}
	pi := p.pulse.Load()
	if pi == nil {
		return 0, errcode.Busy
	}
	return pi.AwaitPulse(ctx, timeout, p.polarity == ActiveHigh)
}
