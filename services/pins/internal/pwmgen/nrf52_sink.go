//go:build nrf52840 || nrf52833

package pwmgen

import (
	"device/nrf"
	"unsafe"
)

// HWSink drives PWM0.
type HWSink struct {
	pwm *nrf.PWM_Type
	seq [4]uint16
}

func NewHWSink() *HWSink {
	s := &HWSink{pwm: nrf.PWM0}
	s.pwm.MODE.Set(nrf.PWM_MODE_UPDOWN_Up)
	s.pwm.DECODER.Set(nrf.PWM_DECODER_LOAD_Individual<<nrf.PWM_DECODER_LOAD_Pos |
		nrf.PWM_DECODER_MODE_RefreshCount<<nrf.PWM_DECODER_MODE_Pos)
	s.pwm.LOOP.Set(0)
	s.pwm.SEQ[0].PTR.Set(uint32(uintptr(unsafe.Pointer(&s.seq[0]))))
	s.pwm.SEQ[0].CNT.Set(uint32(len(s.seq)))
	s.pwm.SEQ[0].REFRESH.Set(0)
	s.pwm.SEQ[0].ENDDELAY.Set(0)
	s.pwm.ENABLE.Set(1)
	return s
}

func (s *HWSink) Configure(prescaler uint8, top uint16) error {
	s.pwm.PRESCALER.Set(uint32(prescaler))
	s.pwm.COUNTERTOP.Set(uint32(top))
	return nil
}

func (s *HWSink) Connect(channel, number int) error {
	s.pwm.PSEL.OUT[channel].Set(uint32(number))
	return nil
}

// Disconnect sets the channel's PSEL to its reset value, leaving no pin
// routed.
func (s *HWSink) Disconnect(channel int) error {
	s.pwm.PSEL.OUT[channel].Set(0xFFFFFFFF)
	return nil
}

func (s *HWSink) Play(seq []uint16) error {
	copy(s.seq[:], seq)
	s.pwm.TASKS_SEQSTART[0].Set(1)
	return nil
}
