//go:build !(nrf52840 || nrf52833)

package pins

// HardwareOptions selects the simulation on hosts without the GPIO block.
func HardwareOptions() Options { return Options{} }
