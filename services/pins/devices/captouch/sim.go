package captouch

import "sync"

// SimBackend reports preset capacitance per pin.
type SimBackend struct {
	mu     sync.Mutex
	pins   []int
	levels map[int]int
}

func NewSimBackend() *SimBackend { return &SimBackend{levels: map[int]int{}} }

func (s *SimBackend) Set(number, v int) {
	s.mu.Lock()
	s.levels[number] = v
	s.mu.Unlock()
}

func (s *SimBackend) Pins() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.pins...)
}

func (s *SimBackend) SetPins(numbers []int) {
	s.mu.Lock()
	s.pins = append(s.pins[:0], numbers...)
	s.mu.Unlock()
}

func (s *SimBackend) Update() {}

func (s *SimBackend) Value(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[s.pins[i]]
}
