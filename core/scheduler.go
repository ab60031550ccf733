package core

// Timer is a one-shot or self-rescheduling entry in the sorted timer
// list: core.NewStatusReporter's periodic push rides on this instead of
// spinning up its own goroutine.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1

	// TimerPastThreshold is how far behind WakeTime a timer may fire before
	// it's treated as the MCU falling behind the requested step rate
	// rather than ordinary scheduling jitter. 100ms at the 12MHz TimerFreq.
	TimerPastThreshold = 1200000
)

var (
	timerList       *Timer
	currentTime     uint32
	timerPastErrors uint32
)

// ScheduleTimer inserts t into the sorted timer list under an interrupt
// mask, so TimerDispatch never observes a partially-spliced list.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	insertTimer(t)
}

// insertTimer keeps the list sorted by WakeTime using signed-wraparound
// comparison (int32(a-b) < 0 means a precedes b), so a 32-bit tick
// counter rolling over mid-schedule still orders correctly as long as no
// two timers are more than ~35 minutes apart at a 1MHz tick rate.
func insertTimer(t *Timer) {
	if timerList == nil || int32(t.WakeTime-timerList.WakeTime) < 0 {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && int32(current.Next.WakeTime-t.WakeTime) < 0 {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// TimerDispatch fires every timer whose WakeTime has arrived, rescheduling
// those whose handler returns SF_RESCHEDULE. A timer found more than
// TimerPastThreshold behind latches a shutdown instead of firing, since a
// stuck tick loop this far behind can no longer produce correctly-timed
// step pulses.
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil && int32(currentTime-timerList.WakeTime) >= 0 {
		timer := timerList
		timerList = timer.Next
		timer.Next = nil

		timeDiff := int32(currentTime - timer.WakeTime)
		if timeDiff > int32(TimerPastThreshold) {
			timerPastErrors++
			DebugPrintln("[SCHED] TIMER IN PAST! Shutting down...")
			RecordTiming(EvtTimerPast, AxisEventNone, currentTime, timer.WakeTime, uint32(timeDiff))
			TryShutdown("Rescheduled timer in the past")
			return
		}

		result := timer.Handler(timer)
		if result == SF_RESCHEDULE {
			insertTimer(timer)
		}

		// Handlers may take long enough to run (e.g. a blocked ring push)
		// that real time has moved on; re-read it so the next timer in the
		// loop isn't dispatched against a stale currentTime.
		currentTime = GetTime()
	}
}

// GetTimerPastErrors returns the lifetime count of timer-in-past faults.
// controller.Controller surfaces this in a DumpTimingRing call when a
// watchdog-caused ESTOP latches, and clears it via ResetTimerPastErrors
// once the operator acknowledges the fault with STOP.
func GetTimerPastErrors() uint32 {
	return timerPastErrors
}

// ResetTimerPastErrors clears the timer-in-past counter.
func ResetTimerPastErrors() {
	timerPastErrors = 0
}
