package pins

import (
	"context"
	"testing"
	"time"

	"pinmux-go/errcode"
	"pinmux-go/services/pins/internal/core"
	"pinmux-go/services/pins/internal/irq"
	"pinmux-go/services/pins/internal/regs"
	"pinmux-go/types"
)

func TestEdgeEventsOnBus(t *testing.T) {
	r := newRig(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.sys.Start(ctx)

	p := r.sys.NewPin(1, 2, CapAll, "A0")
	c := r.sys.Bus().NewConnection("test")
	rise := c.Subscribe(irq.PinTopic(1, types.EvtRise))
	fall := c.Subscribe(irq.PinTopic(1, types.EvtFall))

	if err := p.EventOn(EventOnEdge); err != nil {
		t.Fatal(err)
	}
	if p.Role() != RoleDigitalIn || p.Edge() != EdgeEvents {
		t.Fatalf("role=%v edge=%v", p.Role(), p.Edge())
	}

	r.hw.Drive(2, true)
	recv(t, rise, time.Second)
	r.hw.Drive(2, false)
	m := recv(t, fall, time.Second)
	if ev := m.Payload.(types.PinEvent); ev.Source != 1 || ev.Value != types.EvtFall {
		t.Fatalf("event=%+v", ev)
	}
	if st := r.sys.Stats(); st.Dispatched != 2 {
		t.Fatalf("dispatched=%d", st.Dispatched)
	}

	if err := p.DisableEvents(); err != nil {
		t.Fatal(err)
	}
	if regs.SenseOf(r.hw.Port(0).PinCnf(2)) != regs.SenseDisabled {
		t.Fatal("sense left armed")
	}
	r.hw.Drive(2, true)
	if st := r.sys.Stats(); st.Dispatched != 2 {
		t.Fatalf("dispatched after disable=%d", st.Dispatched)
	}
}

func TestInterruptCallback(t *testing.T) {
	r := newRig(t, Options{})
	p := r.sys.NewPin(1, 2, CapAll, "A0")
	var levels []int
	p.SetIRQ(func(level int) { levels = append(levels, level) })
	if err := p.EventOn(InterruptOnEdge); err != nil {
		t.Fatal(err)
	}
	r.hw.Drive(2, true)
	r.hw.Drive(2, false)
	r.hw.Drive(2, true)
	if len(levels) != 3 || levels[0] != 1 || levels[1] != 0 || levels[2] != 1 {
		t.Fatalf("levels=%v", levels)
	}

	// plain edge events do not call the raw handler
	levels = nil
	_ = p.EventOn(EventOnEdge)
	r.hw.Drive(2, false)
	if len(levels) != 0 {
		t.Fatalf("callback ran in edge mode: %v", levels)
	}
}

func TestPulseWidths(t *testing.T) {
	r := newRig(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.sys.Start(ctx)

	p := r.sys.NewPin(1, 2, CapAll, "A0")
	c := r.sys.Bus().NewConnection("test")
	hi := c.Subscribe(irq.PinTopic(1, types.EvtPulseHi))
	lo := c.Subscribe(irq.PinTopic(1, types.EvtPulseLo))

	if err := p.EventOn(EventOnPulse); err != nil {
		t.Fatal(err)
	}
	r.clock.Set(1000)
	r.hw.Drive(2, true)
	r.clock.Set(1250)
	r.hw.Drive(2, false)

	if ev := recv(t, lo, time.Second).Payload.(types.PinEvent); ev.DurationUs != 1000 {
		t.Fatalf("low width=%d", ev.DurationUs)
	}
	if ev := recv(t, hi, time.Second).Payload.(types.PinEvent); ev.DurationUs != 250 || ev.TsUs != 1250 {
		t.Fatalf("high pulse=%+v", ev)
	}
}

func TestPulseModeNeedsFreePin(t *testing.T) {
	r := newRig(t, Options{})
	p := r.sys.NewPin(1, 2, CapAll, "A0")
	_, _ = p.GetDigitalValue()
	_ = p.Connect(&fakePer{locked: true}, false)
	if err := p.EventOn(EventOnPulse); errcode.Of(err) != errcode.Busy {
		t.Fatalf("err=%v", err)
	}
	if p.Edge() != EdgeNone {
		t.Fatalf("edge=%v", p.Edge())
	}
}

func TestPulseModeReplacesUnlockedPeripheral(t *testing.T) {
	r := newRig(t, Options{})
	p := r.sys.NewPin(1, 2, CapAll, "A0")
	_, _ = p.GetDigitalValue()
	per := &fakePer{}
	_ = p.Connect(per, true)
	if err := p.EventOn(EventOnPulse); err != nil {
		t.Fatalf("err=%v", err)
	}
	if per.releases != 1 || per.closed != 1 {
		t.Fatalf("releases=%d closed=%d", per.releases, per.closed)
	}
	if p.Edge() != EdgePulse || p.Peripheral() == nil || p.Peripheral() == core.Peripheral(per) {
		t.Fatalf("edge=%v obj=%v", p.Edge(), p.Peripheral())
	}
}

func TestGetPulseUsTimeout(t *testing.T) {
	r := newRig(t, Options{})
	p := r.sys.NewPin(1, 2, CapAll, "A0")
	start := time.Now()
	_, err := p.GetPulseUs(context.Background(), 20*time.Millisecond)
	if errcode.Of(err) != errcode.Cancelled {
		t.Fatalf("err=%v", err)
	}
	if el := time.Since(start); el < 20*time.Millisecond {
		t.Fatalf("returned after %v", el)
	}
	if p.Edge() != EdgePulse || p.Role() != RoleDigitalIn {
		t.Fatalf("edge=%v role=%v", p.Edge(), p.Role())
	}
}

func TestGetPulseUsMeasures(t *testing.T) {
	r := newRig(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.sys.Start(ctx)

	p := r.sys.NewPin(1, 2, CapAll, "A0")
	p.SetPolarity(ActiveHigh)
	if err := p.EventOn(EventOnPulse); err != nil {
		t.Fatal(err)
	}

	type result struct {
		us  uint32
		err error
	}
	done := make(chan result, 1)
	go func() {
		us, err := p.GetPulseUs(ctx, 5*time.Second)
		done <- result{us, err}
	}()

	for i := 0; i < 500; i++ {
		select {
		case res := <-done:
			if res.err != nil || res.us != 300 {
				t.Fatalf("width=%d err=%v", res.us, res.err)
			}
			return
		default:
		}
		r.hw.Drive(2, true)
		r.clock.Advance(300 * time.Microsecond)
		r.hw.Drive(2, false)
		r.clock.Advance(700 * time.Microsecond)
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("no pulse measured")
}

func TestWakeCancelsDeepSleep(t *testing.T) {
	r := newRig(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.sys.Start(ctx)

	p := r.sys.NewPin(3, 13, CapDigital, "D0")
	p.SetWakeOnActive(true)
	r.sys.SetDeepSleepPending(true)

	c := r.sys.Bus().NewConnection("test")
	sub := c.Subscribe(irq.NotifyTopic(types.NotifyCancelDeepSleep))
	_ = p.EventOn(EventOnEdge)
	r.hw.Drive(13, true)

	ev := recv(t, sub, time.Second).Payload.(types.PinEvent)
	if ev.Source != types.NotifySource {
		t.Fatalf("event=%+v", ev)
	}
}

func TestISRQueueOverflowCounts(t *testing.T) {
	r := newRig(t, Options{EventQueue: 1})
	p := r.sys.NewPin(1, 2, CapAll, "A0")
	_ = p.EventOn(EventOnEdge)
	r.hw.Drive(2, true)
	r.hw.Drive(2, false)
	r.hw.Drive(2, true)
	if st := r.sys.Stats(); st.Dropped != 2 {
		t.Fatalf("dropped=%d", st.Dropped)
	}
}
