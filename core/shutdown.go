package core

import "sync/atomic"

// isShutdown latches true once the firmware has entered an unrecoverable
// fault state (timer starvation, detected by the scheduler's timer-in-past
// check). Once set it is only cleared by a fresh boot.
var isShutdown uint32

// TryShutdown latches the shutdown flag and records why. Callers such as
// the scheduler's timer-in-past detector use this instead of panicking so
// the rest of the tick loop can keep observing state for diagnostics.
func TryShutdown(reason string) {
	atomic.StoreUint32(&isShutdown, 1)
	DebugPrintln("[SHUTDOWN] " + reason)
}

// IsShutdown reports whether the firmware has latched a shutdown.
func IsShutdown() bool {
	return atomic.LoadUint32(&isShutdown) != 0
}
