// Package core holds the contracts shared by the pin controller and the
// peripherals that can be attached to a pin.
package core

import "pinmux-go/x/timex"

// PinRef is the view of a pin a peripheral needs when it is released.
type PinRef interface {
	ID() uint16
	Number() int
}

// Peripheral is anything that can be exclusively attached to a pin.
type Peripheral interface {
	// ReleasePin is invoked when the pin leaves the role the peripheral serves.
	ReleasePin(p PinRef) error
	// IsPinLocked reports that the peripheral refuses to let go of the pin.
	IsPinLocked() bool
}

// Event is emitted from interrupt context and delivered on the bus.
type Event struct {
	Source uint16
	Value  int
	TsUs   uint64
	// DurationUs is the measured width for pulse events.
	DurationUs uint32
}

// Emitter accepts events without blocking. Emit reports false if the event
// was dropped.
type Emitter interface {
	Emit(ev Event) bool
}

// Clock is re-exported so collaborators depend on one package.
type Clock = timex.Clock
