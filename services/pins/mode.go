package pins

import (
	"io"

	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/regs"

	"go.uber.org/multierr"
)

// fast reports that target is already active and the attached peripheral,
// if any, is not holding the pin.
func (p *Pin) fast(target Role) bool {
	return p.role == target && (p.obj == nil || !p.obj.IsPinLocked())
}

// enter moves the pin into target. On the fast path nothing changes; the
// caller then touches only its data register. Otherwise the pin is
// disconnected and reconfigured. A locked peripheral keeps the pin's
// hardware configuration, but the role is recorded regardless.
func (p *Pin) enter(target Role) error {
	if p.fast(target) {
		return nil
	}
	locked := p.obj != nil && p.obj.IsPinLocked()
	err := p.disconnect()
	if !locked {
		p.configure(target)
	}
	p.role = target
	p.sys.publishState(p)
	return err
}

// configure writes PIN_CNF for a role. Sticky fields are preserved.
func (p *Pin) configure(target Role) {
	cnf := p.port.PinCnf(p.bit)
	switch target {
	case RoleDigitalOut, RoleAnalogOut:
		cnf |= regs.CnfDir
	case RoleDigitalIn:
		cnf &^= regs.CnfDir | regs.CnfInputDisconnect
		cnf = withPull(cnf, p.pull)
	case RoleAnalogIn:
		cnf &^= regs.CnfDir | regs.CnfPullMask
		cnf |= regs.CnfInputDisconnect
	default:
		return
	}
	p.port.SetPinCnf(p.bit, cnf)
}

// disconnect releases the attached peripheral, clears edge sensing and
// resets the role. Sticky preferences survive. A release callback that
// re-enters disconnect on the same pin returns immediately.
func (p *Pin) disconnect() error {
	if p.disconnecting {
		return nil
	}
	var err error
	if p.obj != nil && !p.obj.IsPinLocked() {
		p.disconnecting = true
		err = p.release()
		p.disconnecting = false
	}
	p.port.SetPinCnf(p.bit, regs.WithSense(p.port.PinCnf(p.bit), regs.SenseDisabled))
	p.role = RoleUnconfigured
	p.edge.Store(uint32(EdgeNone))
	p.pulse.Store(nil)
	return err
}

// release detaches the peripheral, closing it if the pin owns it.
func (p *Pin) release() error {
	obj, own := p.obj, p.own
	p.obj, p.own = nil, false
	p.pulse.Store(nil)
	err := obj.ReleasePin(p)
	if c, ok := obj.(io.Closer); ok && own {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// Disconnect detaches any peripheral and returns the pin to Unconfigured.
// Calling it on an unconfigured pin is a no-op.
func (p *Pin) Disconnect() error {
	if p.role == RoleUnconfigured && p.obj == nil && p.Edge() == EdgeNone {
		return nil
	}
	err := p.disconnect()
	p.sys.publishState(p)
	return err
}

// Connect attaches per to the pin, releasing a different peripheral first.
// With own set, a per implementing io.Closer is closed on release.
func (p *Pin) Connect(per core.Peripheral, own bool) error {
	if p.obj == per {
		return nil
	}
	var err error
	if p.obj != nil {
		err = p.disconnect()
	}
	p.attach(per, own)
	return err
}

func (p *Pin) attach(per core.Peripheral, own bool) {
	p.obj, p.own = per, own
}
