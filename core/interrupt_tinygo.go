//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts guards insertTimer/TimerDispatch's sorted-list
// mutation against the timer alarm ISR (targets/rp2040/timer_isr.go)
// preempting mid-splice.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
