// services/pins/internal/irq/irq_test.go

package irq

import (
	"context"
	"sync"
	"testing"
	"time"

	"pinmux-go/bus"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/regs"
	"pinmux-go/types"
	"pinmux-go/x/timex"
)

// fakeTarget records callbacks in a shared log.
type fakeTarget struct {
	name  string
	armed bool
	wake  bool
	log   *[]string
}

func (f *fakeTarget) EdgeArmed() bool    { return f.armed }
func (f *fakeTarget) WakeOnActive() bool { return f.wake }
func (f *fakeTarget) Rise()              { *f.log = append(*f.log, f.name+":rise") }
func (f *fakeTarget) Fall()              { *f.log = append(*f.log, f.name+":fall") }

// recEmitter collects events synchronously.
type recEmitter struct {
	mu  sync.Mutex
	evs []core.Event
}

func (r *recEmitter) Emit(ev core.Event) bool {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
	return true
}

func armHigh(sim *regs.Sim, number int) {
	port, bit := regs.Split(number)
	sim.Drive(number, false)
	sim.Port(port).SetPinCnf(bit, regs.WithSense(0, regs.SenseHigh))
}

func TestDispatchHighestBitFirst(t *testing.T) {
	sim := regs.NewSim()
	var log []string
	out := &recEmitter{}
	d := NewDispatcher(sim, out, &timex.ManualClock{}, nil)

	d.Register(3, &fakeTarget{name: "p3", armed: true, log: &log})
	d.Register(9, &fakeTarget{name: "p9", armed: true, log: &log})
	d.Register(40, &fakeTarget{name: "p40", armed: true, log: &log})

	for _, n := range []int{1, 3, 9, 40} {
		armHigh(sim, n)
	}
	// no handler installed: events accumulate in the latch
	for _, n := range []int{1, 3, 9, 40} {
		sim.Drive(n, true)
	}
	// pin 1 stays latched but no longer meets its sense condition
	sim.Drive(1, false)
	if sim.Port(0).Latch() != 1<<1|1<<3|1<<9 {
		t.Fatalf("latch = %#x", sim.Port(0).Latch())
	}

	d.Handle()

	want := []string{"p9:rise", "p3:rise", "p40:rise"}
	if len(log) != len(want) {
		t.Fatalf("got %v want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("got %v want %v", log, want)
		}
	}
	if sim.Port(0).Latch() != 0 || sim.Port(1).Latch() != 0 {
		t.Fatal("latches must be cleared")
	}
	if d.Dispatched() != 3 {
		t.Fatalf("dispatched = %d", d.Dispatched())
	}
	_, bit := regs.Split(9)
	if regs.SenseOf(sim.Port(0).PinCnf(bit)) != regs.SenseLow {
		t.Fatal("sense should be flipped to low after a rise")
	}
}

func TestDispatchFallAndUnarmed(t *testing.T) {
	sim := regs.NewSim()
	var log []string
	d := NewDispatcher(sim, &recEmitter{}, &timex.ManualClock{}, nil)
	d.Register(4, &fakeTarget{name: "p4", armed: true, log: &log})
	d.Register(5, &fakeTarget{name: "p5", armed: false, log: &log})

	sim.Drive(4, true)
	sim.Port(0).SetPinCnf(4, regs.WithSense(0, regs.SenseLow))
	armHigh(sim, 5)
	sim.Drive(5, true)
	sim.Drive(5, false)
	sim.Drive(4, false)

	d.Handle()

	if len(log) != 1 || log[0] != "p4:fall" {
		t.Fatalf("got %v", log)
	}
	if regs.SenseOf(sim.Port(0).PinCnf(5)) != regs.SenseHigh {
		t.Fatal("unarmed pin sense must not be touched")
	}
	if regs.SenseOf(sim.Port(0).PinCnf(4)) != regs.SenseHigh {
		t.Fatal("sense should be flipped to high after a fall")
	}
}

func TestDispatchWakeCancelsDeepSleep(t *testing.T) {
	sim := regs.NewSim()
	var log []string
	out := &recEmitter{}
	pending := false
	clk := &timex.ManualClock{}
	clk.Set(77)
	d := NewDispatcher(sim, out, clk, func() bool { return pending })
	d.Register(6, &fakeTarget{name: "p6", armed: true, wake: true, log: &log})
	d.Enable()

	armHigh(sim, 6)
	sim.Drive(6, true)
	if len(out.evs) != 0 {
		t.Fatal("no cancel expected without pending deep sleep")
	}
	pending = true
	sim.Drive(6, false)
	if len(out.evs) != 1 {
		t.Fatalf("expected one cancel, got %d", len(out.evs))
	}
	ev := out.evs[0]
	if ev.Source != types.NotifySource || ev.Value != types.NotifyCancelDeepSleep || ev.TsUs != 77 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestRegisterOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewDispatcher(regs.NewSim(), &recEmitter{}, &timex.ManualClock{}, nil).Register(regs.MaxPins, nil)
}

func TestNotifierPublishesAndDrops(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("irq")
	sub := conn.Subscribe(bus.T(TopicPin, 12, "+"))
	nsub := conn.Subscribe(bus.T(TopicNotify, "#"))

	n := NewNotifier(conn, 2)
	if !n.Emit(core.Event{Source: 12, Value: types.EvtRise, TsUs: 5}) {
		t.Fatal("first emit should succeed")
	}
	n.Emit(core.Event{Source: types.NotifySource, Value: types.NotifyCancelDeepSleep})
	if n.Emit(core.Event{Source: 12, Value: types.EvtFall}) {
		t.Fatal("third emit should be dropped with no pump running")
	}
	if n.ISRDrops() != 1 {
		t.Fatalf("drops = %d", n.ISRDrops())
	}

	ctx, cancel := context.WithCancel(context.Background())
	n.Start(ctx)

	select {
	case m := <-sub.Channel():
		ev := m.Payload.(types.PinEvent)
		if ev.Source != 12 || ev.Value != types.EvtRise || ev.TsUs != 5 {
			t.Fatalf("unexpected payload %+v", ev)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for pin event")
	}
	select {
	case m := <-nsub.Channel():
		if m.Topic[1] != types.NotifyCancelDeepSleep {
			t.Fatalf("unexpected notify topic %v", m.Topic)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for notify event")
	}

	cancel()
	select {
	case <-n.Stopped():
	case <-time.After(200 * time.Millisecond):
		t.Fatal("pump did not stop")
	}
}
