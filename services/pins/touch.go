package pins

import (
	"pinmux-go/errcode"
	"pinmux-go/services/pins/devices/button"
	"pinmux-go/services/pins/devices/captouch"
	"pinmux-go/services/pins/internal/core"

	"periph.io/x/conn/v3/gpio"
)

// touchInput is what both touch peripherals offer.
type touchInput interface {
	core.Peripheral
	IsPressed() bool
	WasPressed() int
	Calibrate()
}

// IsTouched reports the debounced touch state using the last touch mode.
func (p *Pin) IsTouched() (bool, error) { return p.IsTouchedMode(p.touchKind) }

// IsTouchedMode reports the debounced touch state, switching the pin to
// the given sensing mode first if needed. Switching mode discards the
// press count of the previous mode.
func (p *Pin) IsTouchedMode(mode TouchMode) (bool, error) {
	t, err := p.touchIn(mode)
	if err != nil {
		return false, err
	}
	return t.IsPressed(), nil
}

// WasTouched returns the number of touches since the previous call.
func (p *Pin) WasTouched() (int, error) { return p.WasTouchedMode(p.touchKind) }

func (p *Pin) WasTouchedMode(mode TouchMode) (int, error) {
	t, err := p.touchIn(mode)
	if err != nil {
		return 0, err
	}
	return t.WasPressed(), nil
}

// TouchCalibrate re-baselines a capacitive touch pin. Other modes ignore it.
func (p *Pin) TouchCalibrate() {
	if p.role != RoleTouchIn || p.touchKind != TouchCapacitive {
		return
	}
	if t, ok := p.obj.(touchInput); ok {
		t.Calibrate()
	}
}

func (p *Pin) touchIn(mode TouchMode) (touchInput, error) {
	if !p.has(CapDigital) || (mode == TouchCapacitive && !p.has(CapTouch)) {
		return nil, errcode.NotSupported
	}
	if mode != TouchResistive && mode != TouchCapacitive {
		return nil, errcode.InvalidParameter
	}
	if p.role == RoleTouchIn && p.touchKind == mode {
		if t, ok := p.obj.(touchInput); ok {
			return t, nil
		}
	}

	if err := p.disconnect(); err != nil {
		return nil, err
	}
	if p.obj != nil {
		return nil, errcode.Busy
	}

	var t touchInput
	if mode == TouchCapacitive {
		t = captouch.NewTouchButton(p.id, p.number, p.sys.touchSensor(), p.sys.notifier, p.sys)
	} else {
		if _, err := p.GetDigitalValue(); err != nil {
			return nil, err
		}
		if err := p.SetPull(gpio.Float); err != nil {
			return nil, err
		}
		t = button.New(button.Config{
			ID:        p.id,
			ActiveLow: true,
			Read:      func() bool { return p.port.In()&p.mask != 0 },
		}, p.sys.notifier, p.sys)
	}
	p.attach(t, true)
	p.touchKind = mode
	p.role = RoleTouchIn
	p.sys.publishState(p)
	return t, nil
}
