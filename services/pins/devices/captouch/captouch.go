// Package captouch measures pin capacitance and turns it into a touch button.
package captouch

import (
	"sync"

	"pinmux-go/services/pins/devices/button"
	"pinmux-go/services/pins/internal/core"
)

// DefaultThreshold is the rise over baseline that counts as a touch.
const DefaultThreshold = 100

// Backend measures a set of pins. Index i refers to the i-th pin passed to
// SetPins.
type Backend interface {
	SetPins(numbers []int)
	Update()
	Value(index int) int
}

type channel struct {
	number   int
	baseline int
	raw      int
}

// Sensor tracks a calibrated baseline per pin.
type Sensor struct {
	mu        sync.Mutex
	be        Backend
	threshold int
	chans     []*channel
	cancel    func()
}

// NewSensor starts measuring through sched.
func NewSensor(be Backend, threshold int, sched core.Scheduler) *Sensor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	s := &Sensor{be: be, threshold: threshold}
	s.cancel = sched.Every(s)
	return s
}

func (s *Sensor) findLocked(number int) (int, *channel) {
	for i, c := range s.chans {
		if c.number == number {
			return i, c
		}
	}
	return -1, nil
}

func (s *Sensor) resyncLocked() {
	nums := make([]int, len(s.chans))
	for i, c := range s.chans {
		nums[i] = c.number
	}
	s.be.SetPins(nums)
}

// Add starts measuring a pin. The first measurement becomes its baseline.
func (s *Sensor) Add(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, c := s.findLocked(number); c != nil {
		return
	}
	s.chans = append(s.chans, &channel{number: number, baseline: -1})
	s.resyncLocked()
}

// Remove stops measuring a pin.
func (s *Sensor) Remove(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, c := s.findLocked(number)
	if c == nil {
		return
	}
	s.chans = append(s.chans[:i], s.chans[i+1:]...)
	s.resyncLocked()
}

// Tick takes one measurement of every pin.
func (s *Sensor) Tick(uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.chans) == 0 {
		return
	}
	s.be.Update()
	for i, c := range s.chans {
		c.raw = s.be.Value(i)
		if c.baseline < 0 {
			c.baseline = c.raw
		}
	}
}

// Touching reports whether the pin reads above its baseline by the threshold.
func (s *Sensor) Touching(number int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, c := s.findLocked(number)
	return c != nil && c.baseline >= 0 && c.raw-c.baseline > s.threshold
}

// Calibrate takes the current reading as the untouched level.
func (s *Sensor) Calibrate(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, c := s.findLocked(number); c != nil {
		c.baseline = c.raw
	}
}

// Raw returns the last measurement of a pin.
func (s *Sensor) Raw(number int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, c := s.findLocked(number); c != nil {
		return c.raw
	}
	return 0
}

// TouchButton debounces a sensor channel like a physical button.
type TouchButton struct {
	*button.Button
	sensor *Sensor
	number int
}

// NewTouchButton adds the pin to the sensor and starts debouncing it.
func NewTouchButton(id uint16, number int, s *Sensor, out core.Emitter, sched core.Scheduler) *TouchButton {
	s.Add(number)
	b := button.New(button.Config{
		ID:   id,
		Read: func() bool { return s.Touching(number) },
	}, out, sched)
	return &TouchButton{Button: b, sensor: s, number: number}
}

func (t *TouchButton) Calibrate() { t.sensor.Calibrate(t.number) }

// ReleasePin stops debouncing and measuring the pin.
func (t *TouchButton) ReleasePin(p core.PinRef) error {
	t.sensor.Remove(t.number)
	return t.Button.ReleasePin(p)
}
