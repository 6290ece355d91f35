//go:build nrf52840 || nrf52833

package regs

import (
	"device/nrf"
	"runtime/interrupt"
)

type hwPort struct{ g *nrf.GPIO_Type }

func (p hwPort) PinCnf(bit int) uint32       { return p.g.PIN_CNF[bit].Get() }
func (p hwPort) SetPinCnf(bit int, v uint32) { p.g.PIN_CNF[bit].Set(v) }
func (p hwPort) OutSet(mask uint32)          { p.g.OUTSET.Set(mask) }
func (p hwPort) OutClr(mask uint32)          { p.g.OUTCLR.Set(mask) }
func (p hwPort) Out() uint32                 { return p.g.OUT.Get() }
func (p hwPort) In() uint32                  { return p.g.IN.Get() }
func (p hwPort) Dir() uint32                 { return p.g.DIR.Get() }
func (p hwPort) DirSet(mask uint32)          { p.g.DIRSET.Set(mask) }
func (p hwPort) Latch() uint32               { return p.g.LATCH.Get() }
func (p hwPort) ClearLatch(mask uint32)      { p.g.LATCH.Set(mask) }

var portHandler func()

func gpioteISR(interrupt.Interrupt) {
	if h := portHandler; h != nil {
		h()
	}
}

type hwEvents struct{}

func (hwEvents) PortEventPending() bool { return nrf.GPIOTE.EVENTS_PORT.Get() != 0 }
func (hwEvents) AckPortEvent()          { nrf.GPIOTE.EVENTS_PORT.Set(0) }

func (hwEvents) EnablePortIRQ(h func()) {
	portHandler = h
	nrf.P0.DETECTMODE.Set(nrf.GPIO_DETECTMODE_DETECTMODE_LDETECT)
	nrf.P1.DETECTMODE.Set(nrf.GPIO_DETECTMODE_DETECTMODE_LDETECT)
	nrf.GPIOTE.INTENSET.Set(nrf.GPIOTE_INTENSET_PORT_Msk)
	intr := interrupt.New(nrf.IRQ_GPIOTE, gpioteISR)
	intr.SetPriority(0xc0)
	intr.Enable()
}

type hwSilicon struct{}

func (hwSilicon) Port(n int) Port {
	if n == 0 {
		return hwPort{nrf.P0}
	}
	return hwPort{nrf.P1}
}

func (hwSilicon) Events() EventUnit { return hwEvents{} }

// Hardware returns the on-chip GPIO block.
func Hardware() Silicon { return hwSilicon{} }
