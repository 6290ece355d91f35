// Package pwmgen drives a four-channel PWM block from a sample buffer.
package pwmgen

import (
	"sync"

	"pinmux-go/errcode"
	"pinmux-go/x/mathx"
)

const (
	// BaseClockHz is the PWM block input clock before prescaling.
	BaseClockHz = 16_000_000
	// MaxTop is the largest counter top the block accepts.
	MaxTop       = 32767
	maxPrescaler = 7

	DefaultPeriodUs = 20000
)

// Sink is the register-level PWM block.
type Sink interface {
	Configure(prescaler uint8, top uint16) error
	Connect(channel, number int) error
	Disconnect(channel int) error
	Play(seq []uint16) error
}

// Generator computes prescaler and counter top for a period.
type Generator struct {
	mu        sync.Mutex
	sink      Sink
	periodUs  uint32
	prescaler uint8
	top       uint16
}

// New returns a generator configured for periodUs.
func New(sink Sink, periodUs uint32) (*Generator, error) {
	g := &Generator{sink: sink}
	if err := g.SetPeriodUs(periodUs); err != nil {
		return nil, err
	}
	return g, nil
}

// Timing returns the smallest prescaler whose counter top fits, and that top.
func Timing(periodUs uint32) (prescaler uint8, top uint16, err error) {
	ticks := uint64(periodUs) * (BaseClockHz / 1_000_000)
	for p := uint8(0); p <= maxPrescaler; p++ {
		t := mathx.RoundDiv(ticks, uint64(1)<<p)
		if t == 0 {
			return 0, 0, errcode.InvalidParameter
		}
		if t <= MaxTop {
			return p, uint16(t), nil
		}
	}
	return 0, 0, errcode.InvalidParameter
}

func (g *Generator) SetPeriodUs(us uint32) error {
	p, top, err := Timing(us)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sink.Configure(p, top); err != nil {
		return err
	}
	g.periodUs, g.prescaler, g.top = us, p, top
	return nil
}

func (g *Generator) PeriodUs() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.periodUs
}

// SampleRange is the counter top: a sample of this value is a full period.
func (g *Generator) SampleRange() uint16 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.top
}

func (g *Generator) Prescaler() uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prescaler
}

func (g *Generator) ConnectPin(number, channel int) error {
	return g.sink.Connect(channel, number)
}

func (g *Generator) DisconnectPin(channel int) error {
	return g.sink.Disconnect(channel)
}

// Play forwards a sample sequence to the hardware.
func (g *Generator) Play(seq []uint16) error {
	return g.sink.Play(seq)
}

// Player is what a MemorySource plays into.
type Player interface {
	Play(seq []uint16) error
}

// MemorySource keeps its own copy of the last buffer handed to it so the
// hardware can keep reading it after the caller's buffer changes.
type MemorySource struct {
	mu    sync.Mutex
	out   Player
	mem   []uint16
	plays int
}

func NewMemorySource(out Player) *MemorySource {
	return &MemorySource{out: out}
}

func (s *MemorySource) PlayAsync(samples []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem = append(s.mem[:0], samples...)
	s.plays++
	return s.out.Play(s.mem)
}

// Last returns a copy of the most recently played buffer.
func (s *MemorySource) Last() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint16(nil), s.mem...)
}

func (s *MemorySource) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}
