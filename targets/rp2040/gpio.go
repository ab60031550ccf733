//go:build rp2040 || rp2350

package main

import (
	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/targets/pio"
	"machine"
)

// RPGPIODriver implements core.GPIODriver against TinyGo's machine.Pin,
// with an optional per-pin PIO pulse generator for STEP pins that need
// hardware-timed pulses. Grounded on the teacher's RP2040/RP2350 GPIO HAL
// driver pattern (direct pin-number-to-machine.Pin mapping, one struct
// implementing the whole interface).
type RPGPIODriver struct {
	configured map[core.GPIOPin]machine.Pin
	pulse      map[core.GPIOPin]*pio.PulseGenerator
}

// NewRPGPIODriver creates an empty driver; pins are configured lazily as
// the firmware's axis/endstop setup calls ConfigureOutput/ConfigureInputPullUp.
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configured: make(map[core.GPIOPin]machine.Pin),
		pulse:      make(map[core.GPIOPin]*pio.PulseGenerator),
	}
}

func pinNumberToMachinePin(p core.GPIOPin) machine.Pin {
	return machine.Pin(uint8(p))
}

// AttachPulseGenerator routes future SetPin(pin, true) calls for pin
// through gen.Pulse() instead of a direct register write, giving that
// pin hardware-timed pulse width immune to Go scheduler jitter. Called
// from main() for each axis's STEP pin where a PIO state machine is
// available.
func (d *RPGPIODriver) AttachPulseGenerator(pin core.GPIOPin, gen *pio.PulseGenerator) {
	d.pulse[pin] = gen
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	// A PIO-accelerated pin is configured by its PulseGenerator.Init, not here.
	if _, ok := d.pulse[pin]; ok {
		return nil
	}
	mp := pinNumberToMachinePin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configured[pin] = mp
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	mp := pinNumberToMachinePin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configured[pin] = mp
	return nil
}

func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	mp := pinNumberToMachinePin(pin)
	mp.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	d.configured[pin] = mp
	return nil
}

func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if gen, ok := d.pulse[pin]; ok {
		if value {
			gen.Pulse()
		}
		// PIO program lowers the pin itself; nothing to do on value==false.
		return nil
	}
	if _, ok := d.configured[pin]; ok {
		// Configured pins (DIR, chip-select) go through the SIO block:
		// single-cycle, called from the tick ISR where machine.Pin.Set's
		// extra indirection is measurable.
		pio.FastSet(uint8(pin), value)
		return nil
	}
	pinNumberToMachinePin(pin).Set(value)
	return nil
}

func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	mp, ok := d.configured[pin]
	if !ok {
		mp = pinNumberToMachinePin(pin)
	}
	return mp.Get(), nil
}

func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	v, _ := d.GetPin(pin)
	return v
}
