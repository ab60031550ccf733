//go:build !tinygo

package core

// getSystemTicks backs GetTime on the native build: cmd/ptzfw's pumpTimers
// goroutine is the only writer, advancing systemTicks off a time.Ticker
// since there's no hardware timer register to read here.
func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
