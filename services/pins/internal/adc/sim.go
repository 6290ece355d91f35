package adc

import (
	"sync"

	"pinmux-go/errcode"
)

// SimBackend returns preset levels.
type SimBackend struct {
	mu      sync.Mutex
	levels  [Inputs]uint16
	enabled [Inputs]bool
}

func (s *SimBackend) Set(ain int, v uint16) {
	s.mu.Lock()
	s.levels[ain] = v
	s.mu.Unlock()
}

func (s *SimBackend) Enabled(ain int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled[ain]
}

func (s *SimBackend) Enable(ain int) error {
	s.mu.Lock()
	s.enabled[ain] = true
	s.mu.Unlock()
	return nil
}

func (s *SimBackend) Disable(ain int) {
	s.mu.Lock()
	s.enabled[ain] = false
	s.mu.Unlock()
}

func (s *SimBackend) Convert(ain int) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled[ain] {
		return 0, errcode.Busy
	}
	return s.levels[ain], nil
}
