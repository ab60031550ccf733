package core

// DebugWriter is the platform hook for debug/diagnostic text output: a
// UART on the TinyGo targets, log.Printf on the native build.
type DebugWriter func(string)

// TimingEvent captures a timing-relevant event for post-mortem analysis
// after a fault. Kept deliberately tiny (fixed-width fields, no strings)
// so RecordTiming is cheap enough to call from tick-adjacent code.
type TimingEvent struct {
	EventType uint8  // one of the Evt* codes below
	OID       uint8  // AxisID for axis-specific events, 0xFF otherwise
	Clock     uint32 // core.GetTime() at the moment of the event
	Value1    uint32 // context-dependent value
	Value2    uint32 // context-dependent value
}

// AxisEventNone marks a TimingEvent that isn't tied to one axis.
const AxisEventNone uint8 = 0xFF

// Event type codes: what actually gets recorded by this rig, not the
// Klipper command stream an earlier firmware generation traced.
const (
	EvtSegmentLoaded  = 1 // StepExecutor loaded a segment off the ring
	EvtSegmentOverrun = 2 // planner couldn't push a segment: ring full
	EvtHomingTrigger  = 3 // homing axis confirmed a debounced trigger
	EvtAxisZeroed     = 4 // homing set an axis's position to zero
	EvtTimerPast      = 5 // scheduler: timer fired far enough behind to fault
	EvtEStop          = 6 // controller latched ESTOP
)

const (
	TimingRingSize = 32 // last 32 events, enough for one fault's worth of context
)

var (
	// debugPrintln is the platform-specific debug output function.
	debugPrintln DebugWriter = func(s string) {} // no-op until a target registers one

	// debugEnabled gates DebugPrintln; off by default so a quiet rig stays quiet.
	debugEnabled bool = false

	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true // timing capture runs regardless of debugEnabled
)

// SetDebugWriter registers the platform's debug output function. Called
// once during target assembly (cmd/ptzfw, targets/rp2040).
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables DebugPrintln output.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled reports whether DebugPrintln output is active.
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes msg through the registered DebugWriter if enabled.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures a timing event in the ring buffer. Always runs,
// independent of debugEnabled, so a post-mortem dump has context even
// when routine debug logging was off.
func RecordTiming(eventType, oid uint8, clock, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// DumpTimingRing writes the timing ring to the debug writer, oldest event
// first. Called by the controller when it latches ESTOP, so a fault's
// run-up is visible even with routine logging disabled.
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	debugPrintln("[TIMING] Uptime ticks: " + itoa(int(GetUptime())))
	debugPrintln("[TIMING] Total steps executed: " + itoa(int(GetTotalStepCount())))

	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		idx := (start + i) % TimingRingSize
		evt := &timingRing[idx]
		if evt.EventType == 0 {
			continue // empty slot
		}

		var name string
		switch evt.EventType {
		case EvtSegmentLoaded:
			name = "SEGMENT_LOADED"
		case EvtSegmentOverrun:
			name = "SEGMENT_OVERRUN"
		case EvtHomingTrigger:
			name = "HOMING_TRIGGER"
		case EvtAxisZeroed:
			name = "AXIS_ZEROED"
		case EvtTimerPast:
			name = "TIMER_PAST!"
		case EvtEStop:
			name = "ESTOP"
		default:
			name = "UNKNOWN"
		}

		oid := "-"
		if evt.OID != AxisEventNone {
			oid = itoa(int(evt.OID))
		}

		debugPrintln("[TIMING] " + name +
			" oid=" + oid +
			" clock=" + itoa(int(evt.Clock)) +
			" v1=" + itoa(int(evt.Value1)) +
			" v2=" + itoa(int(evt.Value2)))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer, used by tests that need a
// clean slate between fault scenarios.
func ClearTimingRing() {
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
}
