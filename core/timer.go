package core

// TimerFreq is the tick rate core.GetTime()/SetTime() operate in on the
// native build, where GetTime is a plain counter advanced by cmd/ptzfw's
// pumpTimers. The TinyGo build reads the RP2040 hardware timer directly,
// so there GetTime counts that timer's 1MHz microseconds instead.
const TimerFreq = 12000000

var (
	systemTicks uint32
	bootTicks   uint32 // GetTime() at TimerInit, used to derive GetUptime
)

// GetTime returns the current system time in timer ticks.
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime sets the current system time; used by the native build's
// pumpTimers and by tests that need deterministic tick advancement.
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// GetUptime returns ticks elapsed since TimerInit was called, using
// wraparound-safe 32-bit subtraction (the same idiom as insertTimer's
// comparison in scheduler.go) so a tick counter rollover still yields the
// elapsed count.
func GetUptime() uint32 {
	return uint32(int32(GetTime() - bootTicks))
}

// TimerFromUS converts microseconds to timer ticks.
func TimerFromUS(us uint32) uint32 {
	return (us * TimerFreq) / 1000000
}

// TimerToUS converts timer ticks to microseconds.
func TimerToUS(ticks uint32) uint32 {
	return (ticks * 1000000) / TimerFreq
}

// TimerInit marks the current tick as zero-uptime. Called once during
// target assembly: on the TinyGo build after InitClock has wired the
// hardware timer, natively before pumpTimers starts advancing the counter.
func TimerInit() {
	bootTicks = GetTime()
}

// ProcessTimers advances the scheduler's notion of "now" and dispatches
// any timers that are due.
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
