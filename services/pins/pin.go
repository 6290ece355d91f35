// Package pins multiplexes header pins between digital, analog, touch and
// edge-timing roles and dispatches the shared port interrupt to them.
//
// A Pin is not safe for concurrent use by multiple goroutines. State the
// interrupt path reads (edge mode, wake flag, raw callback, pulse timing)
// is published through atomics.
package pins

import (
	"strconv"
	"sync/atomic"

	"pinmux-go/bus"
	"pinmux-go/services/pins/devices/pulsein"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/regs"

	"periph.io/x/conn/v3/gpio"
)

// Capability is the set of roles a pin is wired for.
type Capability uint8

const (
	CapDigital Capability = 1 << iota
	CapAnalog
	CapTouch

	CapAll = CapDigital | CapAnalog | CapTouch
)

// Role is the single active function of a pin.
type Role uint8

const (
	RoleUnconfigured Role = iota
	RoleDigitalIn
	RoleDigitalOut
	RoleAnalogIn
	RoleAnalogOut
	RoleTouchIn
)

var roleNames = [...]string{"unconfigured", "digital_in", "digital_out", "analog_in", "analog_out", "touch_in"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "role(" + strconv.Itoa(int(r)) + ")"
}

// EdgeMode is the edge-watch overlay on a digital input.
type EdgeMode uint32

const (
	EdgeNone EdgeMode = iota
	EdgeEvents
	EdgePulse
	EdgeInterrupt
)

var edgeNames = [...]string{"", "edge", "pulse", "interrupt"}

func (e EdgeMode) String() string {
	if int(e) < len(edgeNames) {
		return edgeNames[e]
	}
	return "edge(" + strconv.Itoa(int(e)) + ")"
}

// TouchMode selects how touch is sensed.
type TouchMode uint8

const (
	TouchResistive TouchMode = iota
	TouchCapacitive
)

// Polarity selects which level counts as a pulse for GetPulseUs.
type Polarity uint8

const (
	ActiveLow Polarity = iota
	ActiveHigh
)

// Pin controls one physical pin.
type Pin struct {
	sys    *System
	id     uint16
	number int
	name   string
	caps   Capability
	port   regs.Port
	bit    int
	mask   uint32

	role          Role
	disconnecting bool

	// sticky preferences
	pull        gpio.Pull
	defaultPull gpio.Pull
	touchKind   TouchMode
	polarity    Polarity
	wake        atomic.Bool

	edge  atomic.Uint32 // EdgeMode
	irqFn atomic.Pointer[func(level int)]
	pulse atomic.Pointer[pulsein.PulseIn]

	obj core.Peripheral
	own bool

	// edge subscription for WaitForEdge
	edgeSub  *bus.Subscription
	edgeWant gpio.Edge
}

var _ core.PinRef = (*Pin)(nil)

func (p *Pin) ID() uint16                  { return p.id }
func (p *Pin) Number() int                 { return p.number }
func (p *Pin) Caps() Capability            { return p.caps }
func (p *Pin) Role() Role                  { return p.role }
func (p *Pin) Edge() EdgeMode              { return EdgeMode(p.edge.Load()) }
func (p *Pin) Peripheral() core.Peripheral { return p.obj }

func (p *Pin) has(c Capability) bool { return p.caps&c != 0 }

// ---- interrupt-side view (irq.Target) ----

func (p *Pin) EdgeArmed() bool    { return p.Edge() != EdgeNone }
func (p *Pin) WakeOnActive() bool { return p.wake.Load() }

// Rise handles a low-to-high transition from interrupt context.
func (p *Pin) Rise() { p.onEdge(1) }

// Fall handles a high-to-low transition from interrupt context.
func (p *Pin) Fall() { p.onEdge(0) }
