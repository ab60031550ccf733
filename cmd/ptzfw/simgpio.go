package main

import (
	"sync"

	"github.com/amken3d/ptzrig/core"
)

// simGPIO is a desktop stand-in for a real GPIO bank, used by the native
// build of this firmware for development and for exercising the full
// command-to-pulse path without hardware attached. Grounded on the same
// pin-map-backed shape as targets/rp2040's RPGPIODriver, trading real
// register writes for an in-memory map core.Axis can still latch
// direction and pulse STEP against.
type simGPIO struct {
	mu     sync.Mutex
	levels map[core.GPIOPin]bool
}

func newSimGPIO() *simGPIO {
	return &simGPIO{levels: make(map[core.GPIOPin]bool)}
}

func (g *simGPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.levels[pin]; !ok {
		g.levels[pin] = false
	}
	return nil
}

func (g *simGPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Idle inactive (pulled up -> logic high, endstop reads active-low).
	g.levels[pin] = true
	return nil
}

func (g *simGPIO) ConfigureInputPullDown(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = false
	return nil
}

func (g *simGPIO) SetPin(pin core.GPIOPin, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.levels[pin] = value
	return nil
}

func (g *simGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin], nil
}

func (g *simGPIO) ReadPin(pin core.GPIOPin) bool {
	v, _ := g.GetPin(pin)
	return v
}
