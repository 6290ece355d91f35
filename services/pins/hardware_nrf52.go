//go:build nrf52840 || nrf52833

package pins

import (
	"pinmux-go/services/pins/devices/captouch"
	"pinmux-go/services/pins/internal/adc"
	"pinmux-go/services/pins/internal/pwmgen"
	"pinmux-go/services/pins/internal/regs"
)

// HardwareOptions runs a System on the on-chip GPIO, PWM0 and SAADC blocks.
func HardwareOptions() Options {
	return Options{
		Silicon:      regs.Hardware(),
		PWMSink:      pwmgen.NewHWSink(),
		ADCBackend:   adc.NewHWBackend(),
		TouchBackend: captouch.NewArrayBackend(),
	}
}
