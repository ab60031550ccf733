package core

// StatusReporter drives a periodic callback off the software timer queue,
// grounded on the teacher's TriggerSync.ReportTimer mechanism (trsync.go):
// one Timer rescheduling itself every ReportTicks for as long as the rig
// wants unsolicited status pushed to the host, instead of a dedicated
// goroutine per reporter.
type StatusReporter struct {
	timer       Timer
	reportTicks uint32
	callback    func()
}

// NewStatusReporter arms a reporter that calls fn every intervalTicks of
// core.GetTime, starting immediately. intervalTicks is expressed in the
// same timer-tick units as GetTime/ScheduleTimer (TimerFreq ticks/sec on
// the native build, 1MHz hardware timer ticks on the TinyGo build).
func NewStatusReporter(intervalTicks uint32, fn func()) *StatusReporter {
	r := &StatusReporter{reportTicks: intervalTicks, callback: fn}
	r.timer.WakeTime = GetTime() + intervalTicks
	r.timer.Handler = r.fire
	ScheduleTimer(&r.timer)
	return r
}

func (r *StatusReporter) fire(t *Timer) uint8 {
	r.callback()
	t.WakeTime = GetTime() + r.reportTicks
	return SF_RESCHEDULE
}
