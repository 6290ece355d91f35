package pins

import (
	"time"

	"pinmux-go/bus"
	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/irq"
	"pinmux-go/types"
	"pinmux-go/x/mathx"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// FuncTouch is reported by Func while the pin senses touch.
const FuncTouch pin.Func = "TOUCH"

var (
	_ gpio.PinIO  = (*Pin)(nil)
	_ pin.PinFunc = (*Pin)(nil)
)

func (p *Pin) String() string { return p.name }
func (p *Pin) Name() string   { return p.name }

// Function is the string form of Func.
func (p *Pin) Function() string { return string(p.Func()) }

// Halt detaches everything from the pin.
func (p *Pin) Halt() error {
	p.closeEdgeSub()
	return p.Disconnect()
}

// In makes the pin a digital input. A non-zero edge arms edge events that
// WaitForEdge consumes; NoEdge stops them.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull != gpio.PullNoChange {
		if err := p.SetPull(pull); err != nil {
			return err
		}
	}
	if edge == gpio.NoEdge {
		p.closeEdgeSub()
		if p.Edge() == EdgeEvents {
			if err := p.DisableEvents(); err != nil {
				return err
			}
		}
		_, err := p.GetDigitalValue()
		return err
	}
	if err := p.EnableRiseFallEvents(EventOnEdge); err != nil {
		return err
	}
	p.edgeWant = edge
	if p.edgeSub == nil {
		p.edgeSub = p.sys.conn.Subscribe(bus.T(irq.TopicPin, int(p.id), "+"))
	}
	return nil
}

func (p *Pin) closeEdgeSub() {
	if p.edgeSub != nil {
		p.sys.conn.Unsubscribe(p.edgeSub)
		p.edgeSub = nil
	}
	p.edgeWant = gpio.NoEdge
}

// Read returns the line level. An output reads back what it drives.
func (p *Pin) Read() gpio.Level {
	if p.role == RoleDigitalOut {
		return p.port.Out()&p.mask != 0
	}
	v, _ := p.GetDigitalValue()
	return v != 0
}

// WaitForEdge blocks until an edge armed by In arrives. A negative timeout
// waits forever.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	sub := p.edgeSub
	if sub == nil {
		return false
	}
	var expired <-chan time.Time
	if timeout >= 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	for {
		select {
		case m, ok := <-sub.Channel():
			if !ok {
				return false
			}
			ev, ok := m.Payload.(types.PinEvent)
			if !ok {
				continue
			}
			switch {
			case ev.Value == types.EvtRise && p.edgeWant != gpio.FallingEdge,
				ev.Value == types.EvtFall && p.edgeWant != gpio.RisingEdge:
				return true
			}
		case <-expired:
			return false
		}
	}
}

func (p *Pin) Pull() gpio.Pull        { return p.pull }
func (p *Pin) DefaultPull() gpio.Pull { return p.defaultPull }

func (p *Pin) Out(l gpio.Level) error {
	v := 0
	if l {
		v = 1
	}
	return p.SetDigitalValue(v)
}

// PWM outputs duty at frequency f. f == 0 keeps the shared period. The
// duty resolution is 1/(MaxOutput+1).
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	if !duty.Valid() || f < 0 {
		return errcode.InvalidParameter
	}
	v := mathx.Min(mathx.MulDiv(int(duty), MaxOutput+1, int(gpio.DutyMax)), MaxOutput)
	if err := p.SetAnalogValue(v); err != nil {
		return err
	}
	if f == 0 {
		return nil
	}
	us := f.Period() / time.Microsecond
	if us <= 0 {
		return errcode.InvalidParameter
	}
	return p.sys.pwm.EnsurePeriodUs(uint32(us))
}

// Func reports the active role in periph terms.
func (p *Pin) Func() pin.Func {
	switch p.role {
	case RoleDigitalIn:
		return gpio.IN
	case RoleDigitalOut:
		if p.port.Out()&p.mask != 0 {
			return gpio.OUT_HIGH
		}
		return gpio.OUT_LOW
	case RoleAnalogIn:
		return analog.ADC
	case RoleAnalogOut:
		return gpio.PWM
	case RoleTouchIn:
		return FuncTouch
	}
	return pin.FuncNone
}

func (p *Pin) SupportedFuncs() []pin.Func {
	var fs []pin.Func
	if p.has(CapDigital) {
		fs = append(fs, gpio.IN, gpio.OUT, gpio.FLOAT)
	}
	if p.has(CapAnalog) {
		fs = append(fs, analog.ADC, gpio.PWM)
	}
	if p.has(CapTouch) {
		fs = append(fs, FuncTouch)
	}
	return fs
}

// SetFunc switches the pin to f.
func (p *Pin) SetFunc(f pin.Func) error {
	switch f {
	case pin.FuncNone:
		return p.Halt()
	case gpio.IN:
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.FLOAT:
		return p.In(gpio.Float, gpio.NoEdge)
	case gpio.OUT, gpio.OUT_LOW:
		return p.Out(gpio.Low)
	case gpio.OUT_HIGH:
		return p.Out(gpio.High)
	case gpio.PWM:
		if p.role == RoleAnalogOut {
			return nil
		}
		return p.SetAnalogValue(0)
	case analog.ADC:
		_, err := p.GetAnalogValue()
		return err
	case FuncTouch:
		_, err := p.IsTouched()
		return err
	}
	return errcode.NotSupported
}
