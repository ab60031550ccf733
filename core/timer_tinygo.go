//go:build tinygo

package core

import "sync/atomic"

var (
	systemTicksValue uint32
	// hardwareTimerFunc, once registered by targets/rp2040's InitClock, lets
	// getSystemTicks read the RP2040's free-running timer register directly
	// instead of the cached counter below.
	hardwareTimerFunc func() uint32
)

func getSystemTicks() uint32 {
	if hardwareTimerFunc != nil {
		return hardwareTimerFunc()
	}
	return atomic.LoadUint32(&systemTicksValue)
}

func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}

// SetHardwareTimerFunc wires the hardware timer read into GetTime/
// ProcessTimers. Must be called before any homing/executor tick runs, or
// the scheduler dispatches against the stale cached counter.
func SetHardwareTimerFunc(f func() uint32) {
	hardwareTimerFunc = f
}
