package pwmalloc

import (
	"testing"

	"pinmux-go/errcode"
)

type fakeGen struct {
	periodUs  uint32
	rng       uint16
	connected map[int]int // channel -> pin
	failPin   int
}

func (g *fakeGen) ConnectPin(number, ch int) error {
	if number == g.failPin {
		return errcode.Busy
	}
	g.connected[ch] = number
	return nil
}
func (g *fakeGen) DisconnectPin(ch int) error { delete(g.connected, ch); return nil }
func (g *fakeGen) SampleRange() uint16        { return g.rng }
func (g *fakeGen) PeriodUs() uint32           { return g.periodUs }
func (g *fakeGen) SetPeriodUs(us uint32) error {
	g.periodUs = us
	g.rng = uint16(us) // 1 tick per µs keeps the maths readable
	return nil
}

type fakeSrc struct {
	plays int
	last  []uint16
}

func (s *fakeSrc) PlayAsync(b []uint16) error {
	s.plays++
	s.last = append(s.last[:0], b...)
	return nil
}

type pinRef int

func (p pinRef) ID() uint16  { return uint16(p) }
func (p pinRef) Number() int { return int(p) }

func newTestAllocator() (*Allocator, *fakeGen, *fakeSrc, *int) {
	g := &fakeGen{periodUs: 20000, rng: 20000, connected: map[int]int{}, failPin: -1}
	s := &fakeSrc{}
	builds := 0
	a := New(
		func() (Generator, error) { builds++; return g, nil },
		func(Generator) (Source, error) { return s, nil },
	)
	return a, g, s, &builds
}

func TestRoundRobinWrapsAndOverwrites(t *testing.T) {
	a, g, _, builds := newTestAllocator()

	for i, pin := range []int{10, 11, 12, 13} {
		ch, err := a.Acquire(pin)
		if err != nil || ch != i {
			t.Fatalf("pin %d: ch=%d err=%v", pin, ch, err)
		}
	}
	if *builds != 1 {
		t.Fatalf("generator built %d times", *builds)
	}
	// existing owner keeps its channel
	if ch, _ := a.Acquire(12); ch != 2 {
		t.Fatalf("re-acquire gave %d", ch)
	}
	// fifth pin takes channel 0 from pin 10
	ch, _ := a.Acquire(14)
	if ch != 0 || a.Owner(0) != 14 || g.connected[0] != 14 {
		t.Fatalf("ch=%d owner=%d", ch, a.Owner(0))
	}
	if a.Channel(10) != -1 {
		t.Fatal("pin 10 should have lost its channel")
	}
}

func TestSetValueInvertsDuty(t *testing.T) {
	a, _, s, _ := newTestAllocator()
	ch, _ := a.Acquire(3)

	cases := []struct {
		v    int
		want uint16
	}{
		{0, 20000},
		{512, 10000},
		{1023, 19},
	}
	for _, c := range cases {
		if err := a.SetValue(ch, c.v); err != nil {
			t.Fatal(err)
		}
		if got := a.Buffer()[ch]; got != c.want {
			t.Errorf("v=%d buf=%d want %d", c.v, got, c.want)
		}
	}
	if s.plays != 3 || len(s.last) != Channels {
		t.Fatalf("plays=%d len=%d", s.plays, len(s.last))
	}
	for _, v := range []int{-1, 1024} {
		if err := a.SetValue(ch, v); err != errcode.InvalidParameter {
			t.Errorf("v=%d: err=%v", v, err)
		}
	}
}

func TestSetPeriodRescales(t *testing.T) {
	a, _, s, _ := newTestAllocator()
	c0, _ := a.Acquire(1)
	c1, _ := a.Acquire(2)
	_ = a.SetValue(c0, 512) // 10000
	_ = a.SetValue(c1, 768) // 5000

	if err := a.SetPeriodUs(10000); err != nil {
		t.Fatal(err)
	}
	buf := a.Buffer()
	if buf[c0] != 5000 || buf[c1] != 2500 {
		t.Fatalf("buf=%v", buf)
	}
	if p, _ := a.PeriodUs(); p != 10000 || a.SampleRange() != 10000 {
		t.Fatalf("period=%d", p)
	}
	plays := s.plays
	if err := a.EnsurePeriodUs(10000); err != nil || s.plays != plays {
		t.Fatal("same period must not republish")
	}
}

func TestReleaseClearsOwnedSlots(t *testing.T) {
	a, g, _, _ := newTestAllocator()
	_, _ = a.Acquire(7)
	_, _ = a.Acquire(8)
	if err := a.ReleasePin(pinRef(7)); err != nil {
		t.Fatal(err)
	}
	if a.Owner(0) != -1 || a.Owner(1) != 8 {
		t.Fatalf("owners %d %d", a.Owner(0), a.Owner(1))
	}
	if _, routed := g.connected[0]; routed || g.connected[1] != 8 {
		t.Fatalf("routing after release: %v", g.connected)
	}
	// released again: no-op
	_ = a.ReleasePin(pinRef(7))
	if a.IsPinLocked() {
		t.Fatal("allocator never locks pins")
	}
	// next acquisition continues after the last assigned channel
	if ch, _ := a.Acquire(9); ch != 2 {
		t.Fatalf("ch=%d", ch)
	}
}

func TestFailedConnectLeavesSlotFree(t *testing.T) {
	a, g, _, _ := newTestAllocator()
	_, _ = a.Acquire(1)
	g.failPin = 2
	if ch, err := a.Acquire(2); err == nil || ch != -1 {
		t.Fatalf("ch=%d err=%v", ch, err)
	}
	if a.Owner(1) != -1 || a.Channel(2) != -1 {
		t.Fatalf("owner(1)=%d", a.Owner(1))
	}
	// the cursor did not move: the next pin gets channel 1
	if ch, _ := a.Acquire(3); ch != 1 {
		t.Fatalf("ch=%d", ch)
	}
}
