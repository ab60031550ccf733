//go:build rp2040 || rp2350

// Package pio wires RP2040 PIO state machines to generate hardware-timed
// STEP pulses, so core.StepExecutor's tick loop only has to decide *when*
// to pulse, not shape the pulse itself.
package pio

import (
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildPulseProgram assembles a minimal PIO program: block on a FIFO word,
// then drive the SET pin high for a few cycles and low again. The FIFO
// word's value is irrelevant; any push fires exactly one pulse. This
// removes STEP pulse-width jitter from the Go-side tick loop entirely.
func buildPulseProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                   // 0: pull block
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 1: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 2: set pins, 0
		// .wrap
	}
}

const pulseProgramOrigin = 0

// PulseGenerator drives a single STEP pin via a claimed PIO state machine.
// core.GPIODriver implementations on this target route SetPin(stepPin,
// true) through Pulse() for any pin registered with one of these instead
// of toggling the pin directly, trading a few microseconds of FIFO
// latency for a pulse width and edge timing the CPU can't jitter.
type PulseGenerator struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	stepPin machine.Pin
}

// NewPulseGenerator claims state machine smNum on the given PIO block
// (pioNum 0 or 1).
func NewPulseGenerator(pioNum, smNum uint8) *PulseGenerator {
	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	return &PulseGenerator{pio: pioHW, sm: pioHW.StateMachine(smNum)}
}

// Init configures the state machine to drive stepPin.
func (g *PulseGenerator) Init(stepPin uint8) error {
	g.stepPin = machine.Pin(stepPin)
	g.sm.TryClaim()

	program := buildPulseProgram()
	offset, err := g.pio.AddProgram(program, pulseProgramOrigin)
	if err != nil {
		return err
	}

	g.stepPin.Configure(machine.PinConfig{Mode: g.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(g.stepPin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// 1MHz PIO clock: the 8-cycle high phase gives an ~8us STEP pulse, far
	// above the driver's minimum width and comfortably inside one 25us tick
	// so back-to-back steps at the executor's full rate never overlap.
	cfg.SetClkDivIntFrac(125, 0)

	g.sm.Init(offset, cfg)
	g.sm.SetPindirsConsecutive(g.stepPin, 1, true)
	g.sm.SetPinsConsecutive(g.stepPin, 1, false)
	g.sm.SetEnabled(true)

	return nil
}

// Pulse fires exactly one STEP pulse, blocking only if the FIFO (depth 4,
// and this program consumes one word per pulse) is momentarily full.
func (g *PulseGenerator) Pulse() {
	for g.sm.IsTxFIFOFull() {
	}
	g.sm.TxPut(0)
}

// Stop disables the state machine, used when the executor ESTOPs.
func (g *PulseGenerator) Stop() {
	g.sm.SetEnabled(false)
	g.sm.ClearFIFOs()
	g.sm.Restart()
	g.sm.SetEnabled(true)
}
