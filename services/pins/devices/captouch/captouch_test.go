package captouch

import (
	"testing"

	"pinmux-go/services/pins/devices/button"
	"pinmux-go/services/pins/internal/core"
)

type listSched struct{ ss []core.Sampler }

func (l *listSched) Every(s core.Sampler) func() {
	l.ss = append(l.ss, s)
	i := len(l.ss) - 1
	return func() { l.ss[i] = nil }
}

func (l *listSched) tick(now uint64) {
	for _, s := range l.ss {
		if s != nil {
			s.Tick(now)
		}
	}
}

func TestSensorBaselineAndCalibrate(t *testing.T) {
	be := NewSimBackend()
	sch := &listSched{}
	s := NewSensor(be, 50, sch)

	be.Set(4, 1000)
	s.Add(4)
	sch.tick(1)
	if s.Touching(4) {
		t.Fatal("first reading is the baseline")
	}
	be.Set(4, 1100)
	sch.tick(2)
	if !s.Touching(4) || s.Raw(4) != 1100 {
		t.Fatal("expected touch above threshold")
	}
	s.Calibrate(4)
	if s.Touching(4) {
		t.Fatal("calibrate should absorb the current level")
	}
	s.Remove(4)
	if len(be.Pins()) != 0 || s.Touching(4) {
		t.Fatal("removed pin must not be measured")
	}
}

func TestTouchButton(t *testing.T) {
	be := NewSimBackend()
	sch := &listSched{}
	s := NewSensor(be, 0, sch)
	be.Set(2, 500)

	tb := NewTouchButton(100, 2, s, nil, sch)
	now := uint64(0)
	run := func(n int) {
		for i := 0; i < n; i++ {
			now += button.TickPeriodUs
			sch.tick(now)
		}
	}
	run(2)
	be.Set(2, 500+DefaultThreshold+1)
	run(button.SigmaMax)
	if !tb.IsPressed() {
		t.Fatal("expected pressed")
	}
	be.Set(2, 500)
	run(button.SigmaMax)
	if tb.WasPressed() != 1 {
		t.Fatal("expected one press")
	}

	_ = tb.ReleasePin(nil)
	if len(be.Pins()) != 0 {
		t.Fatal("release should remove the channel")
	}
}
