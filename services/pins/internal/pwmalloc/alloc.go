// Package pwmalloc shares a four-channel waveform generator between pins.
package pwmalloc

import (
	"sync"

	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/x/mathx"

	"go.uber.org/multierr"
)

const (
	Channels = 4
	// MaxValue is the largest analog output value; duty is value/(MaxValue+1).
	MaxValue = 1023

	free = -1
)

// Generator produces the waveform for all channels at one shared period.
type Generator interface {
	ConnectPin(number, channel int) error
	DisconnectPin(channel int) error
	SampleRange() uint16
	PeriodUs() uint32
	SetPeriodUs(us uint32) error
}

// Source feeds one compare value per channel to the generator.
type Source interface {
	PlayAsync(samples []uint16) error
}

// Factories build the hardware side on first use.
type (
	GeneratorFactory func() (Generator, error)
	SourceFactory    func(Generator) (Source, error)
)

// Allocator hands out channels round robin. When all channels are in use the
// next acquisition takes over the channel after the most recently assigned
// one; its previous owner is not told.
type Allocator struct {
	mu     sync.Mutex
	owners [Channels]int
	last   int
	buf    [Channels]uint16

	newGen GeneratorFactory
	newSrc SourceFactory
	gen    Generator
	src    Source
}

func New(newGen GeneratorFactory, newSrc SourceFactory) *Allocator {
	a := &Allocator{last: Channels - 1, newGen: newGen, newSrc: newSrc}
	for i := range a.owners {
		a.owners[i] = free
	}
	return a
}

// ensureLocked creates the generator and source if needed.
func (a *Allocator) ensureLocked() error {
	if a.gen == nil {
		g, err := a.newGen()
		if err != nil {
			return err
		}
		a.gen = g
	}
	if a.src == nil {
		s, err := a.newSrc(a.gen)
		if err != nil {
			return err
		}
		a.src = s
	}
	return nil
}

func (a *Allocator) channelLocked(number int) int {
	ch := free
	for i, o := range a.owners {
		if o == number {
			ch = i
		}
	}
	return ch
}

// Channel returns the channel owned by a pin, or -1.
func (a *Allocator) Channel(number int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.channelLocked(number)
}

// Owner returns the pin index owning ch, or -1.
func (a *Allocator) Owner(ch int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owners[ch]
}

// Acquire returns the pin's channel, assigning the next one round robin if
// it has none.
func (a *Allocator) Acquire(number int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ch := a.channelLocked(number); ch != free {
		return ch, nil
	}
	if err := a.ensureLocked(); err != nil {
		return free, err
	}
	ch := (a.last + 1) % Channels
	if err := a.gen.ConnectPin(number, ch); err != nil {
		return free, err
	}
	a.owners[ch] = number
	a.last = ch
	return ch, nil
}

// SetValue stores the compare value for v in [0, MaxValue] and republishes
// the whole buffer. The generator counts the low phase, so the stored
// value is the inverted duty.
func (a *Allocator) SetValue(ch, v int) error {
	if v < 0 || v > MaxValue {
		return errcode.InvalidParameter
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLocked(); err != nil {
		return err
	}
	rng := int(a.gen.SampleRange())
	a.buf[ch] = uint16(mathx.MulDiv(rng, MaxValue+1-v, MaxValue+1))
	return a.src.PlayAsync(a.buf[:])
}

// SetPeriodUs changes the shared period and rescales every buffered value
// so each channel keeps its duty.
func (a *Allocator) SetPeriodUs(us uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLocked(); err != nil {
		return err
	}
	oldRange := a.gen.SampleRange()
	if err := a.gen.SetPeriodUs(us); err != nil {
		return err
	}
	newRange := a.gen.SampleRange()
	for i := range a.buf {
		a.buf[i] = uint16(mathx.MulDiv(uint32(a.buf[i]), uint32(newRange), uint32(oldRange)))
	}
	return a.src.PlayAsync(a.buf[:])
}

// EnsurePeriodUs sets the period only if it differs.
func (a *Allocator) EnsurePeriodUs(us uint32) error {
	cur, err := a.PeriodUs()
	if err != nil {
		return err
	}
	if cur == us {
		return nil
	}
	return a.SetPeriodUs(us)
}

// PeriodUs returns the shared period, creating the generator if needed.
func (a *Allocator) PeriodUs() (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLocked(); err != nil {
		return 0, err
	}
	return a.gen.PeriodUs(), nil
}

// SampleRange returns the generator's counter top, or 0 before first use.
func (a *Allocator) SampleRange() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gen == nil {
		return 0
	}
	return a.gen.SampleRange()
}

// Buffer returns a copy of the compare values.
func (a *Allocator) Buffer() [Channels]uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buf
}

// ReleasePin frees every channel owned by p and unroutes its output.
func (a *Allocator) ReleasePin(p core.PinRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	var err error
	for i, o := range a.owners {
		if o != p.Number() {
			continue
		}
		a.owners[i] = free
		if a.gen != nil {
			err = multierr.Append(err, a.gen.DisconnectPin(i))
		}
	}
	return err
}

// IsPinLocked is always false: channels can be taken back at any time.
func (a *Allocator) IsPinLocked() bool { return false }
