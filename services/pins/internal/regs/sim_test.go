package regs

import "testing"

func TestSimPullAndDrive(t *testing.T) {
	s := NewSim()
	p := s.Port(0)

	// reset state: input buffer disconnected, reads 0
	p.SetPinCnf(5, CnfPullUp|CnfInputDisconnect)
	if p.In()&Mask(5) != 0 {
		t.Fatal("disconnected input should read 0")
	}
	p.SetPinCnf(5, CnfPullUp)
	if p.In()&Mask(5) == 0 {
		t.Fatal("pull-up should read 1")
	}
	s.Drive(5, false)
	if p.In()&Mask(5) != 0 {
		t.Fatal("driven low should read 0")
	}
	s.Release(5)
	if !s.Level(5) {
		t.Fatal("released line should settle to pull-up")
	}
}

func TestSimOutputAndDir(t *testing.T) {
	s := NewSim()
	p := s.Port(1)
	p.SetPinCnf(3, CnfDir)
	p.OutSet(Mask(35))
	if p.Dir()&Mask(35) == 0 || !s.Level(35) {
		t.Fatal("expected output driven high on P1.03")
	}
	p.OutClr(Mask(35))
	if s.Level(35) {
		t.Fatal("expected low after OutClr")
	}
}

func TestSimLatchRaisesEvent(t *testing.T) {
	s := NewSim()
	p := s.Port(0)
	ev := s.Events()

	var runs int
	ev.EnablePortIRQ(func() {
		runs++
		ev.AckPortEvent()
		// flip sense so the condition no longer holds, then clear
		p.SetPinCnf(7, p.PinCnf(7)^CnfSenseFlip)
		p.ClearLatch(0xffffffff)
	})

	s.Drive(7, false)
	p.SetPinCnf(7, WithSense(0, SenseHigh))
	if runs != 0 {
		t.Fatalf("no event expected yet, got %d", runs)
	}
	s.Drive(7, true)
	if runs != 1 {
		t.Fatalf("expected one handler run, got %d", runs)
	}
	if SenseOf(p.PinCnf(7)) != SenseLow {
		t.Fatalf("sense not flipped: %d", SenseOf(p.PinCnf(7)))
	}
	if p.Latch() != 0 || ev.PortEventPending() {
		t.Fatal("latch and event should be clear")
	}
	s.Drive(7, false)
	if runs != 2 {
		t.Fatalf("expected second run on falling edge, got %d", runs)
	}
}

func TestFieldHelpers(t *testing.T) {
	c := WithDrive(WithSense(CnfPullUp, SenseLow), DriveH0H1)
	if SenseOf(c) != SenseLow || DriveOf(c) != DriveH0H1 || c&CnfPullMask != CnfPullUp {
		t.Fatalf("unexpected cnf %#x", c)
	}
	if c^CnfSenseFlip != WithSense(c, SenseHigh) {
		t.Fatal("flip should toggle low to high")
	}
	port, bit := Split(40)
	if port != 1 || bit != 8 || Mask(40) != 1<<8 {
		t.Fatal("split of 40")
	}
}
