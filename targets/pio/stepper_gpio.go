//go:build rp2040 || rp2350

package pio

import "device/rp"

// FastSet drives a single GPIO pin via RP2040's SIO (single-cycle I/O)
// block instead of the higher-level machine.Pin API, used by the
// RP2040 GPIODriver for DIR and chip-select pins where a few cycles of
// setup/hold time actually matter.
func FastSet(pin uint8, high bool) {
	mask := uint32(1) << pin
	if high {
		rp.SIO.GPIO_OUT_SET.Set(mask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(mask)
	}
}

// FastToggle flips a single GPIO pin via SIO.
func FastToggle(pin uint8) {
	rp.SIO.GPIO_OUT_XOR.Set(uint32(1) << pin)
}
