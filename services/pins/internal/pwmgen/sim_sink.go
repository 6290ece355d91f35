package pwmgen

import "sync"

// SimSink records what would have been written to the PWM block.
type SimSink struct {
	mu        sync.Mutex
	Prescaler uint8
	Top       uint16
	Pins      [4]int
	Seq       []uint16
}

func NewSimSink() *SimSink {
	return &SimSink{Pins: [4]int{-1, -1, -1, -1}}
}

func (s *SimSink) Configure(prescaler uint8, top uint16) error {
	s.mu.Lock()
	s.Prescaler, s.Top = prescaler, top
	s.mu.Unlock()
	return nil
}

func (s *SimSink) Connect(channel, number int) error {
	s.mu.Lock()
	s.Pins[channel] = number
	s.mu.Unlock()
	return nil
}

func (s *SimSink) Disconnect(channel int) error {
	s.mu.Lock()
	s.Pins[channel] = -1
	s.mu.Unlock()
	return nil
}

func (s *SimSink) Play(seq []uint16) error {
	s.mu.Lock()
	s.Seq = append(s.Seq[:0], seq...)
	s.mu.Unlock()
	return nil
}

// Snapshot returns the connected pins and last sequence.
func (s *SimSink) Snapshot() (pins [4]int, seq []uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Pins, append([]uint16(nil), s.Seq...)
}
