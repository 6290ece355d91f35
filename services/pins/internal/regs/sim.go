package regs

import "sync"

// maxIRQReentry bounds back-to-back handler runs when a pin keeps meeting
// its sense condition. Real silicon would storm; the simulation gives up.
const maxIRQReentry = 64

// Sim is an in-memory register block with an external world: lines can be
// driven high/low by "the outside" and undriven lines settle to their pull.
// The port IRQ handler runs synchronously on the goroutine whose write made
// the event pending, one activation at a time.
type Sim struct {
	mu      sync.Mutex
	ports   [PortCount]simPort
	pending bool
	handler func()
	inIRQ   bool
}

type simPort struct {
	sim   *Sim
	width int
	cnf   [PinsPerPort]uint32
	out   uint32
	latch uint32
	ext   uint32 // externally driven levels
	extEn uint32 // which bits are externally driven
}

// NewSim returns a two-port block (32 + 16 pins) at reset state.
func NewSim() *Sim {
	s := &Sim{}
	widths := [PortCount]int{32, MaxPins - 32}
	for i := range s.ports {
		p := &s.ports[i]
		p.sim = s
		p.width = widths[i]
		for b := range p.cnf {
			p.cnf[b] = CnfReset
		}
	}
	return s
}

func (s *Sim) Port(n int) Port   { return &s.ports[n] }
func (s *Sim) Events() EventUnit { return simEvents{s} }

// Drive forces an external level onto a physical pin.
func (s *Sim) Drive(number int, high bool) {
	port, bit := Split(number)
	s.mutate(func() {
		p := &s.ports[port]
		p.extEn |= 1 << uint(bit)
		if high {
			p.ext |= 1 << uint(bit)
		} else {
			p.ext &^= 1 << uint(bit)
		}
	})
}

// Release stops driving a pin externally.
func (s *Sim) Release(number int) {
	port, bit := Split(number)
	s.mutate(func() { s.ports[port].extEn &^= 1 << uint(bit) })
}

// Level reports the electrical level of a pin regardless of input buffer state.
func (s *Sim) Level(number int) bool {
	port, bit := Split(number)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ports[port].level(bit)
}

// mutate applies f under the lock, re-evaluates sense detection and runs the
// IRQ handler if an event became pending.
func (s *Sim) mutate(f func()) {
	s.mu.Lock()
	f()
	s.detectLocked()
	run := s.pending && s.handler != nil && !s.inIRQ
	if run {
		s.inIRQ = true
	}
	s.mu.Unlock()
	if run {
		s.runIRQ()
	}
}

func (s *Sim) runIRQ() {
	for i := 0; ; i++ {
		s.mu.Lock()
		h := s.handler
		s.mu.Unlock()
		h()
		s.mu.Lock()
		if !s.pending || i >= maxIRQReentry {
			s.inIRQ = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// detectLocked latches every pin whose level matches its sense. The port
// event is raised when the combined latch goes from empty to non-empty.
func (s *Sim) detectLocked() {
	before := s.ports[0].latch | s.ports[1].latch
	for i := range s.ports {
		p := &s.ports[i]
		for b := 0; b < p.width; b++ {
			switch SenseOf(p.cnf[b]) {
			case SenseHigh:
				if p.level(b) {
					p.latch |= 1 << uint(b)
				}
			case SenseLow:
				if !p.level(b) {
					p.latch |= 1 << uint(b)
				}
			}
		}
	}
	if before == 0 && s.ports[0].latch|s.ports[1].latch != 0 {
		s.pending = true
	}
}

func (p *simPort) level(bit int) bool {
	m := uint32(1) << uint(bit)
	switch {
	case p.cnf[bit]&CnfDir != 0:
		return p.out&m != 0
	case p.extEn&m != 0:
		return p.ext&m != 0
	default:
		return p.cnf[bit]&CnfPullMask == CnfPullUp
	}
}

func (p *simPort) valid(bit int) bool { return bit >= 0 && bit < p.width }

func (p *simPort) PinCnf(bit int) uint32 {
	p.sim.mu.Lock()
	defer p.sim.mu.Unlock()
	return p.cnf[bit]
}

func (p *simPort) SetPinCnf(bit int, v uint32) {
	if !p.valid(bit) {
		return
	}
	p.sim.mutate(func() { p.cnf[bit] = v })
}

func (p *simPort) OutSet(mask uint32) { p.sim.mutate(func() { p.out |= mask }) }
func (p *simPort) OutClr(mask uint32) { p.sim.mutate(func() { p.out &^= mask }) }

func (p *simPort) Out() uint32 {
	p.sim.mu.Lock()
	defer p.sim.mu.Unlock()
	return p.out
}

func (p *simPort) In() uint32 {
	p.sim.mu.Lock()
	defer p.sim.mu.Unlock()
	var v uint32
	for b := 0; b < p.width; b++ {
		if p.cnf[b]&CnfInputDisconnect == 0 && p.level(b) {
			v |= 1 << uint(b)
		}
	}
	return v
}

func (p *simPort) Dir() uint32 {
	p.sim.mu.Lock()
	defer p.sim.mu.Unlock()
	var v uint32
	for b := 0; b < p.width; b++ {
		v |= (p.cnf[b] & CnfDir) << uint(b)
	}
	return v
}

func (p *simPort) DirSet(mask uint32) {
	p.sim.mutate(func() {
		for b := 0; b < p.width; b++ {
			if mask&(1<<uint(b)) != 0 {
				p.cnf[b] |= CnfDir
			}
		}
	})
}

func (p *simPort) Latch() uint32 {
	p.sim.mu.Lock()
	defer p.sim.mu.Unlock()
	return p.latch
}

// ClearLatch is write-one-to-clear.
func (p *simPort) ClearLatch(mask uint32) { p.sim.mutate(func() { p.latch &^= mask }) }

type simEvents struct{ s *Sim }

func (e simEvents) PortEventPending() bool {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	return e.s.pending
}

func (e simEvents) AckPortEvent() {
	e.s.mu.Lock()
	e.s.pending = false
	e.s.mu.Unlock()
}

func (e simEvents) EnablePortIRQ(handler func()) {
	e.s.mu.Lock()
	e.s.handler = handler
	e.s.mu.Unlock()
}
