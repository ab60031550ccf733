package core

import "sync/atomic"

// TickHz is the rate at which StepExecutor.Tick is invoked: 40kHz gives a
// 25us tick, well above the fastest microstep rate the target motors need
// and low enough to run comfortably from a single hardware timer ISR.
const TickHz = 40000

// StepExecutor drives the three PTZ axes' STEP/DIR pins from a stream of
// Segments via per-axis DDA (digital differential analyser) distribution,
// one tick at a time. It is the sole consumer of its SegmentRing and the
// sole writer of each Axis's position counter; this mirrors the teacher's
// stepperEventHandler, reshaped from one queue per axis to one shared
// queue of multi-axis segments (see SPEC_FULL.md §9).
type StepExecutor struct {
	Axes [axisCount]*Axis
	Ring SegmentRing

	active    bool
	cur       Segment
	elapsed   uint32
	accum     [axisCount]int64

	totalSteps uint64 // atomic
	estopped   uint32 // atomic bool
}

// NewStepExecutor wires the three axes in fixed PAN/TILT/ZOOM order.
func NewStepExecutor(pan, tilt, zoom *Axis) *StepExecutor {
	e := &StepExecutor{}
	e.Axes[AxisPan] = pan
	e.Axes[AxisTilt] = tilt
	e.Axes[AxisZoom] = zoom
	return e
}

// Submit enqueues a segment for execution. Returns false if the ring is
// full, signalling a QueueOverrun to the caller.
func (e *StepExecutor) Submit(seg Segment) bool {
	return e.Ring.Push(seg)
}

// QueueDepth reports how many segments are buffered ahead of the executor.
func (e *StepExecutor) QueueDepth() int {
	return e.Ring.Len()
}

// IsIdle reports whether the executor has no in-flight segment and
// nothing queued behind it.
func (e *StepExecutor) IsIdle() bool {
	return !e.active && e.Ring.Len() == 0
}

// EStop immediately abandons the in-flight segment and drops everything
// queued behind it, without touching direction lines (so a resumed move
// in the same direction doesn't need to re-latch). STEP pins already high
// are still lowered on the next Tick to keep pulse widths bounded.
func (e *StepExecutor) EStop() {
	atomic.StoreUint32(&e.estopped, 1)
	e.Ring.Clear()
	e.active = false
}

// Rearm clears the latched ESTOP so motion can resume. Callers
// (controller) are responsible for only calling this once the rig is
// known safe to move again.
func (e *StepExecutor) Rearm() {
	atomic.StoreUint32(&e.estopped, 0)
}

// IsEStopped reports whether EStop has latched.
func (e *StepExecutor) IsEStopped() bool {
	return atomic.LoadUint32(&e.estopped) != 0
}

// GetTotalStepCount returns the lifetime count of microstep pulses issued
// across all axes, used by debug.DumpTimingRing.
func GetTotalStepCount() uint64 {
	return atomic.LoadUint64(&globalExecutorStepCount)
}

// globalExecutorStepCount mirrors the active executor's totalSteps for
// DumpTimingRing, which has no executor reference of its own.
var globalExecutorStepCount uint64

// Tick advances the executor by one tick. On hardware this is called from
// the timer ISR (targets/rp2040); in the native build a time.Ticker-fed
// loop calls it at TickHz.
func (e *StepExecutor) Tick() {
	// Complete any pulse raised last tick before anything else, so pulse
	// width is always exactly one tick regardless of what else happens
	// this tick.
	for _, a := range e.Axes {
		_ = a.lowerStep()
	}

	if e.IsEStopped() {
		return
	}

	if !e.active {
		seg, ok := e.Ring.Pop()
		if !ok {
			return
		}
		e.cur = seg
		e.elapsed = 0
		for i, a := range e.Axes {
			e.accum[i] = 0
			if seg.Steps[i] != 0 {
				_ = a.latchDirection(seg.Steps[i] > 0)
			}
		}
		e.active = true
		RecordTiming(EvtSegmentLoaded, AxisEventNone, GetTime(), seg.SeqID, seg.Duration)
	}

	for i, a := range e.Axes {
		steps := int64(e.cur.Steps[i])
		if steps == 0 {
			continue
		}
		mag := steps
		if mag < 0 {
			mag = -mag
		}
		e.accum[i] += mag
		if e.accum[i] >= int64(e.cur.Duration) {
			e.accum[i] -= int64(e.cur.Duration)
			if err := a.raiseStep(); err == nil {
				atomic.AddUint64(&e.totalSteps, 1)
				atomic.StoreUint64(&globalExecutorStepCount, atomic.LoadUint64(&e.totalSteps))
			}
		}
	}

	e.elapsed++
	if e.elapsed >= e.cur.Duration {
		e.active = false
	}
}
