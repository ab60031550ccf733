package homing

import (
	"errors"
	"math"
	"time"

	"github.com/amken3d/ptzrig/core"
)

// SegmentDuration is the length of each homing segment the Sequence feeds
// directly to the executor. Kept short so the endstop/stall trigger is
// re-evaluated frequently, guaranteeing homing never overruns its trip
// point by more than one short segment of travel.
const SegmentDuration = 2 * time.Millisecond

// ErrMaxTravelExceeded is returned by Step when an axis travels past its
// configured MaxTravel without its trigger ever confirming.
var ErrMaxTravelExceeded = errors.New("homing: axis exceeded max travel without triggering")

type axisState int

const (
	stateApproachFast axisState = iota
	stateBackoff
	stateApproachSlow
	stateSetZero
)

// AxisHomingConfig parametrizes one axis's datum search. FastVelocity and
// SlowVelocity are signed (their sign is the direction of travel toward
// the datum); BackoffDistance, MinTravel, and MaxTravel are unsigned
// magnitudes in microsteps.
type AxisHomingConfig struct {
	FastVelocity    float64
	SlowVelocity    float64
	BackoffDistance float64
	MinTravel       float64 // ignore a trigger before this much travel (start-up transient guard; mainly for ZOOM's sensorless stall signal)
	MaxTravel       float64 // watchdog: fail if no trigger within this distance
}

type axisRuntime struct {
	axis     *core.Axis
	cfg      AxisHomingConfig
	trig     *Trigger
	state    axisState
	traveled float64
	frac     float64 // fractional step carried between segments
}

// Sequence drives the PAN->TILT->ZOOM homing state machine, talking to
// exec directly and bypassing any planner. The controller owns the
// sequence's lifetime and calls Step at the homing cadence (see
// SegmentDuration) until it returns done or an error.
type Sequence struct {
	exec    *core.StepExecutor
	axes    [3]*axisRuntime
	current int
}

// NewSequence builds a homing sequence over the three axes in fixed
// PAN/TILT/ZOOM order. Each axis's Trigger must already be wired to its
// EndstopSource or StallDetector.
func NewSequence(exec *core.StepExecutor, pan, tilt, zoom AxisHomingConfig, panTrig, tiltTrig, zoomTrig *Trigger) *Sequence {
	s := &Sequence{exec: exec}
	s.axes[core.AxisPan] = &axisRuntime{axis: exec.Axes[core.AxisPan], cfg: pan, trig: panTrig}
	s.axes[core.AxisTilt] = &axisRuntime{axis: exec.Axes[core.AxisTilt], cfg: tilt, trig: tiltTrig}
	s.axes[core.AxisZoom] = &axisRuntime{axis: exec.Axes[core.AxisZoom], cfg: zoom, trig: zoomTrig}
	return s
}

// Done reports whether every axis has completed homing.
func (s *Sequence) Done() bool {
	return s.current >= 3
}

// Step advances the active axis's state machine by one homing segment.
// Returns done=true once all three axes have homed, or a non-nil err if
// the active axis exceeded its max travel without triggering.
func (s *Sequence) Step() (done bool, err error) {
	if s.Done() {
		return true, nil
	}
	ar := s.axes[s.current]

	switch ar.state {
	case stateApproachFast:
		triggered, travel, perr := s.drive(ar, ar.cfg.FastVelocity)
		if perr != nil {
			return false, perr
		}
		ar.traveled += travel
		if triggered && ar.traveled >= ar.cfg.MinTravel {
			core.RecordTiming(core.EvtHomingTrigger, uint8(s.current), core.GetTime(), uint32(ar.traveled), 0)
			ar.state = stateBackoff
			ar.traveled = 0
			ar.trig.Reset()
			return false, nil
		}
		if ar.traveled > ar.cfg.MaxTravel {
			return false, ErrMaxTravelExceeded
		}

	case stateBackoff:
		backoffVel := backoffVelocity(ar.cfg)
		_, travel, perr := s.drive(ar, backoffVel)
		if perr != nil {
			return false, perr
		}
		ar.traveled += travel
		if ar.traveled >= ar.cfg.BackoffDistance {
			ar.state = stateApproachSlow
			ar.traveled = 0
			ar.trig.Reset()
		}

	case stateApproachSlow:
		triggered, travel, perr := s.drive(ar, ar.cfg.SlowVelocity)
		if perr != nil {
			return false, perr
		}
		ar.traveled += travel
		if triggered && ar.traveled >= ar.cfg.MinTravel {
			core.RecordTiming(core.EvtHomingTrigger, uint8(s.current), core.GetTime(), uint32(ar.traveled), 1)
			ar.state = stateSetZero
			return false, nil
		}
		if ar.traveled > ar.cfg.MaxTravel {
			return false, ErrMaxTravelExceeded
		}

	case stateSetZero:
		ar.axis.SetPos(0)
		ar.axis.SetHomed(true)
		core.RecordTiming(core.EvtAxisZeroed, uint8(s.current), core.GetTime(), 0, 0)
		s.current++
	}

	return s.Done(), nil
}

// drive pushes one short constant-velocity segment for ar's axis alone
// (every other axis' step count is zero) and polls its trigger, returning
// whether it fired and how much the axis travelled this segment in
// microsteps (always positive magnitude). The previous segment must be
// fully consumed before the next is enqueued: re-evaluating the trigger
// between segments is what bounds overrun past a trip to one segment of
// motion.
func (s *Sequence) drive(ar *axisRuntime, velocity float64) (triggered bool, travel float64, err error) {
	if !s.exec.IsIdle() {
		return false, 0, nil
	}

	ticks := uint32(SegmentDuration.Seconds() * core.TickHz)
	stepsF := velocity*SegmentDuration.Seconds() + ar.frac
	steps := int32(math.Round(stepsF))
	ar.frac = stepsF - float64(steps)
	if steps > int32(ticks) {
		steps = int32(ticks)
	}
	if steps < -int32(ticks) {
		steps = -int32(ticks)
	}

	var seg core.Segment
	seg.Duration = ticks
	for axisID, runtime := range s.axes {
		if runtime == ar {
			seg.Steps[axisID] = steps
		}
	}
	if !s.exec.Submit(seg) {
		return false, 0, nil
	}

	triggered, err = ar.trig.Poll()
	return triggered, math.Abs(float64(steps)), err
}

// backoffVelocity reverses FastVelocity's direction at the SlowVelocity
// magnitude, so backing off never exceeds the slow-approach speed.
func backoffVelocity(cfg AxisHomingConfig) float64 {
	mag := math.Abs(cfg.SlowVelocity)
	if cfg.FastVelocity >= 0 {
		return -mag
	}
	return mag
}
