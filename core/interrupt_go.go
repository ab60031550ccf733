//go:build !tinygo

package core

// State stands in for the TinyGo build's interrupt.State on the native
// build, where there's no real interrupt controller to mask: the ISR is
// just the goroutine cmd/ptzfw's pumpTick drives off a time.Ticker.
type State uintptr

func disableInterrupts() State {
	return 0
}

func restoreInterrupts(state State) {
}
