//go:build nrf52840 || nrf52833

package adc

import "machine"

var ainPins = [Inputs]machine.Pin{2, 3, 4, 5, 28, 29, 30, 31}

// HWBackend converts through the SAADC one input at a time.
type HWBackend struct {
	adcs [Inputs]machine.ADC
}

func NewHWBackend() *HWBackend {
	machine.InitADC()
	return &HWBackend{}
}

func (h *HWBackend) Enable(ain int) error {
	h.adcs[ain] = machine.ADC{Pin: ainPins[ain]}
	h.adcs[ain].Configure(machine.ADCConfig{Resolution: 14})
	return nil
}

func (h *HWBackend) Disable(int) {}

// Convert scales the 16-bit machine reading back to 14 bits.
func (h *HWBackend) Convert(ain int) (uint16, error) {
	return h.adcs[ain].Get() >> 2, nil
}
