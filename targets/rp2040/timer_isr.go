//go:build rp2040 || rp2350

package main

import (
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"

	"device/rp"

	"github.com/amken3d/ptzrig/core"
)

// RP2040/RP2350 TIMER peripheral alarm registers (datasheet §4.6.5).
// ALARM0 compares against the 32-bit low timer word; writing it also
// arms the alarm. The alarm is one-shot, so the ISR re-arms it for
// now+tickPeriodUS on every fire, turning it into the periodic 40kHz
// source core.StepExecutor.Tick runs from.
const (
	timerALARM0 = timerBase + 0x10
	timerARMED  = timerBase + 0x20
	timerINTR   = timerBase + 0x34
	timerINTE   = timerBase + 0x38
)

var (
	alarm0Reg = (*volatile.Register32)(unsafe.Pointer(uintptr(timerALARM0)))
	armedReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerARMED)))
	intrReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTR)))
	inteReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerINTE)))
)

// tickPeriodUS is the ALARM0 reload period matching core.TickHz (40kHz ->
// 25us), the fixed high rate §4.1 requires for the step-pulse ISR.
const tickPeriodUS = 1000000 / core.TickHz

// stepExec is the executor this target's ISR drives; set once by
// InitTickTimer before the alarm is armed.
var stepExec *core.StepExecutor

// InitTickTimer arms ALARM0 for the first tick and wires its interrupt to
// StepExecutor.Tick, making the executor's Tick the hardware-timer ISR
// the spec's step-pulse executor must run from.
func InitTickTimer(exec *core.StepExecutor) {
	stepExec = exec

	interrupt.New(rp.IRQ_TIMER_IRQ_0, timerIRQHandler).Enable()
	inteReg.SetBits(1 << 0) // enable ALARM0 match interrupt
	armNextAlarm()
}

func armNextAlarm() {
	alarm0Reg.Set(timerRAWL.Get() + tickPeriodUS)
}

// timerIRQHandler fires on every ALARM0 match: it clears the latch, runs
// exactly one executor tick, and re-arms the alarm for the next period.
// Per §5 this must stay well under one tick (25us); Tick itself touches
// only atomics and GPIO register writes, no allocation or floating point.
func timerIRQHandler(interrupt.Interrupt) {
	intrReg.Set(1 << 0) // write-1-to-clear
	stepExec.Tick()
	armNextAlarm()

	// ALARM0 is one-shot; ARMED must be re-read to confirm the new target
	// latched before returning, matching the datasheet's recommended
	// re-arm sequence.
	_ = armedReg.Get()
}
