package pins

import (
	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/regs"

	"periph.io/x/conn/v3/gpio"
)

func withPull(cnf uint32, pull gpio.Pull) uint32 {
	cnf &^= regs.CnfPullMask
	switch pull {
	case gpio.PullDown:
		cnf |= regs.CnfPullDown
	case gpio.PullUp:
		cnf |= regs.CnfPullUp
	}
	return cnf
}

func (p *Pin) writeOut(v int) {
	if v != 0 {
		p.port.OutSet(p.mask)
	} else {
		p.port.OutClr(p.mask)
	}
}

func (p *Pin) readIn() int {
	if p.port.In()&p.mask != 0 {
		return 1
	}
	return 0
}

// SetDigitalValue drives the pin high for nonzero v, low otherwise.
func (p *Pin) SetDigitalValue(v int) error {
	if !p.has(CapDigital) {
		return errcode.NotSupported
	}
	// OUT is written before DIR so the line never glitches to the old level.
	p.writeOut(v)
	return p.enter(RoleDigitalOut)
}

// GetDigitalValue samples the pin as a digital input. Edge and pulse
// watching stay armed while the pin remains an input.
func (p *Pin) GetDigitalValue() (int, error) {
	if !p.has(CapDigital) {
		return 0, errcode.NotSupported
	}
	if p.role == RoleTouchIn && p.fast(RoleTouchIn) {
		return p.readIn(), nil
	}
	err := p.enter(RoleDigitalIn)
	return p.readIn(), err
}

// GetDigitalValuePull applies pull, then samples the pin.
func (p *Pin) GetDigitalValuePull(pull gpio.Pull) (int, error) {
	if err := p.SetPull(pull); err != nil {
		return 0, err
	}
	return p.GetDigitalValue()
}

// SetPull records the pull preference and applies it immediately.
// PullNoChange keeps the current preference.
func (p *Pin) SetPull(pull gpio.Pull) error {
	switch pull {
	case gpio.PullNoChange:
		pull = p.pull
	case gpio.Float, gpio.PullDown, gpio.PullUp:
	default:
		return errcode.InvalidParameter
	}
	p.pull = pull
	p.port.SetPinCnf(p.bit, withPull(p.port.PinCnf(p.bit), pull))
	return nil
}

// SetDriveMode selects one of the eight output drive strengths.
func (p *Pin) SetDriveMode(mode int) error {
	if mode < 0 || mode > int(regs.DriveH0D1) {
		return errcode.InvalidParameter
	}
	p.port.SetPinCnf(p.bit, regs.WithDrive(p.port.PinCnf(p.bit), uint32(mode)))
	return nil
}

// DriveMode returns the current drive strength.
func (p *Pin) DriveMode() int { return int(regs.DriveOf(p.port.PinCnf(p.bit))) }

// SetHighDrive switches between high drive on both levels and standard.
func (p *Pin) SetHighDrive(on bool) error {
	if on {
		return p.SetDriveMode(int(regs.DriveH0H1))
	}
	return p.SetDriveMode(int(regs.DriveS0S1))
}

func (p *Pin) IsHighDrive() bool { return regs.DriveOf(p.port.PinCnf(p.bit)) == regs.DriveH0H1 }

func (p *Pin) IsInput() bool {
	switch p.role {
	case RoleDigitalIn, RoleAnalogIn, RoleTouchIn:
		return true
	}
	return false
}

func (p *Pin) IsOutput() bool {
	return p.port.Dir()&p.mask != 0 || p.role == RoleDigitalOut || p.role == RoleAnalogOut
}

func (p *Pin) IsDigital() bool {
	switch p.role {
	case RoleDigitalIn, RoleDigitalOut, RoleTouchIn:
		return true
	}
	return false
}

func (p *Pin) IsAnalog() bool { return p.role == RoleAnalogIn || p.role == RoleAnalogOut }

// GetAndSetDigitalValue takes over a shared line only if nobody else is
// already holding it at v: for v=1 the pin starts driving only if the line
// reads low, for v=0 only if it reads high. errcode.Busy reports the line
// was already at v. A pin already driving is left alone.
func (p *Pin) GetAndSetDigitalValue(v int) error {
	if p.port.Dir()&p.mask != 0 {
		return nil
	}
	p.writeOut(v)
	in := p.port.In()
	if v != 0 {
		p.port.DirSet(^in & p.mask)
	} else {
		p.port.DirSet(in & p.mask)
	}
	if p.port.Dir()&p.mask == 0 {
		return errcode.Busy
	}
	if err := p.disconnect(); err != nil {
		return err
	}
	return p.SetDigitalValue(v)
}

// SetDetect writes the raw SENSE field (regs.SenseDisabled/High/Low).
func (p *Pin) SetDetect(sense uint32) error {
	switch sense {
	case regs.SenseDisabled, regs.SenseHigh, regs.SenseLow:
	default:
		return errcode.InvalidParameter
	}
	p.port.SetPinCnf(p.bit, regs.WithSense(p.port.PinCnf(p.bit), sense))
	return nil
}

// SetWakeOnActive marks the pin as a wake source: activity on it cancels a
// pending deep sleep.
func (p *Pin) SetWakeOnActive(on bool) { p.wake.Store(on) }

func (p *Pin) IsWakeOnActive() bool { return p.wake.Load() }

func (p *Pin) SetPolarity(pol Polarity) { p.polarity = pol }

func (p *Pin) Polarity() Polarity { return p.polarity }
