// Package adc multiplexes the eight analog inputs between pins.
package adc

import (
	"sync"

	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/core"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

const (
	Inputs = 8
	// FullScale is one past the largest sample value (14-bit conversion).
	FullScale = 1 << 14
	// FullScaleVoltage is the input level that reads FullScale-1.
	FullScaleVoltage = 3600 * physic.MilliVolt
)

// Backend performs a single conversion on an analog input.
type Backend interface {
	Enable(ain int) error
	Disable(ain int)
	Convert(ain int) (uint16, error)
}

// AIN returns the analog input wired to a physical pin, or -1.
func AIN(number int) int {
	switch {
	case number >= 2 && number <= 5:
		return number - 2
	case number >= 28 && number <= 31:
		return number - 24
	}
	return -1
}

// Mux owns the converter. It implements drivers.Sensor: Update(Voltage)
// refreshes the cached sample of every enabled channel.
type Mux struct {
	mu       sync.Mutex
	backend  Backend
	channels [Inputs]*Channel
}

var _ drivers.Sensor = (*Mux)(nil)

func NewMux(b Backend) *Mux { return &Mux{backend: b} }

// Channel returns the channel for a pin, enabling it on first use.
func (m *Mux) Channel(number int) (*Channel, error) {
	ain := AIN(number)
	if ain < 0 {
		return nil, errcode.NotSupported
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.channels[ain]; c != nil {
		return c, nil
	}
	if err := m.backend.Enable(ain); err != nil {
		return nil, err
	}
	c := &Channel{mux: m, ain: ain}
	m.channels[ain] = c
	return c, nil
}

func (m *Mux) Update(which drivers.Measurement) error {
	if which&drivers.Voltage == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.channels {
		if c == nil {
			continue
		}
		if _, err := c.Sample(); err != nil {
			return err
		}
	}
	return nil
}

// ReleasePin disables the pin's analog input.
func (m *Mux) ReleasePin(p core.PinRef) error {
	ain := AIN(p.Number())
	if ain < 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.channels[ain] != nil {
		m.backend.Disable(ain)
		m.channels[ain] = nil
	}
	return nil
}

func (m *Mux) IsPinLocked() bool { return false }

// Channel is one analog input.
type Channel struct {
	mux  *Mux
	ain  int
	mu   sync.Mutex
	last uint16
}

func (c *Channel) AIN() int { return c.ain }

// Sample converts now and returns a value in [0, FullScale).
func (c *Channel) Sample() (uint16, error) {
	v, err := c.mux.backend.Convert(c.ain)
	if err != nil {
		return 0, err
	}
	if v >= FullScale {
		v = FullScale - 1
	}
	c.mu.Lock()
	c.last = v
	c.mu.Unlock()
	return v, nil
}

// Last returns the most recent sample without converting.
func (c *Channel) Last() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Voltage converts a sample to an input level.
func Voltage(sample uint16) physic.ElectricPotential {
	return physic.ElectricPotential(int64(FullScaleVoltage) * int64(sample) / FullScale)
}
