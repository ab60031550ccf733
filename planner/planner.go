// Package planner converts a profiled Trajectory or a live manual-velocity
// target into the stream of fixed-duration core.Segments the step executor
// consumes, grounded on the teacher's standalone/planner queue-and-pump
// control flow (QueueMove/executeNextMove) but replacing its constant-
// velocity-only stepper commands with the quintic segment stream this rig
// needs.
package planner

import (
	"math"
	"time"

	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/quintic"
)

// DefaultSegmentDuration is the planner's Δt: long enough to amortize the
// per-segment bookkeeping, short enough that eight of them (the ring's
// capacity) buffer a comfortable ~64ms of motion ahead of the executor.
const DefaultSegmentDuration = 8 * time.Millisecond

// AxisLimits is the subset of core.Axis the planner needs to clamp and
// slew-limit against; kept separate from core.Axis so the planner doesn't
// need GPIO-level access to do its arithmetic.
type AxisLimits struct {
	MaxVelocity float64 // microsteps/sec
	MaxAccel    float64 // microsteps/sec^2
}

type mode int

const (
	modeIdle mode = iota
	modeProfile
	modeManual
)

// Planner is the sole producer for a core.StepExecutor's SegmentRing. It is
// driven by repeated Pump calls from the controller's cadence; it never
// blocks and never touches the ring except through Pump.
type Planner struct {
	axes       [3]AxisLimits
	segTicks   uint32 // DefaultSegmentDuration expressed in core.TickHz ticks
	segSeconds float64

	mode mode
	seq  uint32

	// Profile stream: built fully by SubmitProfile, drained by Pump.
	pending    []core.Segment
	pendingIdx int

	// Manual velocity state, advanced one segment per Pump call while
	// mode == modeManual.
	targetVel [3]float64
	curVel    [3]float64
	residual  [3]float64

	lastProfileVelocity [3]float64
}

// New builds a Planner for three axes in PAN/TILT/ZOOM order.
func New(pan, tilt, zoom AxisLimits) *Planner {
	p := &Planner{axes: [3]AxisLimits{pan, tilt, zoom}}
	p.segTicks = uint32(DefaultSegmentDuration.Seconds() * core.TickHz)
	p.segSeconds = DefaultSegmentDuration.Seconds()
	return p
}

// IsIdle reports whether the planner has nothing left to produce: no
// pending profile segments and, in manual mode, velocity and target both
// settled at zero.
func (p *Planner) IsIdle() bool {
	switch p.mode {
	case modeProfile:
		return p.pendingIdx >= len(p.pending)
	case modeManual:
		for i := 0; i < 3; i++ {
			if p.targetVel[i] != 0 || p.curVel[i] != 0 {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// SubmitProfile replaces any in-progress production with the full segment
// stream for traj, computed deterministically up front so it can be unit
// tested without an executor. The caller (controller) is responsible for
// only calling this from a state where a new profiled move is legal.
func (p *Planner) SubmitProfile(traj Trajectory) {
	p.mode = modeProfile
	p.pending = buildProfileSegments(traj, p.segTicks, &p.seq)
	p.pendingIdx = 0
}

// SetManualVelocity sets the target velocity (microsteps/sec) the slew
// limiter drives curVel toward, one DefaultSegmentDuration step per Pump
// call. Calling this with all-zero targets lets an in-progress manual move
// decelerate to a stop instead of halting abruptly.
func (p *Planner) SetManualVelocity(target [3]float64) {
	if p.mode != modeManual {
		p.mode = modeManual
		p.curVel = [3]float64{}
		p.residual = [3]float64{}
	}
	p.targetVel = target
}

// SeedManualVelocity switches into manual mode starting from an explicit
// current velocity instead of zero, then immediately applies target. Used
// by the controller when handing off a profiled move's in-flight velocity
// to the slew limiter for a controlled stop (spec §8 scenario: STOP
// mid-GOTO decelerates through the slew limiter rather than cutting
// abruptly).
func (p *Planner) SeedManualVelocity(cur, target [3]float64) {
	p.mode = modeManual
	p.curVel = cur
	p.residual = [3]float64{}
	p.targetVel = target
}

// CurrentVelocity returns the planner's last computed velocity in manual
// mode. In every other mode it returns the average velocity of the most
// recently pumped profile segment, which is kept after the profile has
// been fully pumped (zero only if no profile segment was ever pumped).
func (p *Planner) CurrentVelocity() [3]float64 {
	if p.mode == modeManual {
		return p.curVel
	}
	return p.lastProfileVelocity
}

// IsManual reports whether the planner is currently in manual-velocity mode.
func (p *Planner) IsManual() bool {
	return p.mode == modeManual
}

// Abort stops all future segment generation immediately, in either mode,
// without touching whatever is already queued in the executor's ring —
// the executor simply drains what it already has and goes idle.
func (p *Planner) Abort() {
	p.mode = modeIdle
	p.pending = nil
	p.pendingIdx = 0
	p.targetVel = [3]float64{}
	p.curVel = [3]float64{}
}

// Pump feeds segments into exec's ring until it is full or the planner has
// nothing left to produce this call, returning how many it pushed.
func (p *Planner) Pump(exec *core.StepExecutor) int {
	switch p.mode {
	case modeProfile:
		return p.pumpProfile(exec)
	case modeManual:
		return p.pumpManual(exec)
	default:
		return 0
	}
}

func (p *Planner) pumpProfile(exec *core.StepExecutor) int {
	n := 0
	for p.pendingIdx < len(p.pending) {
		seg := p.pending[p.pendingIdx]
		if !exec.Submit(seg) {
			core.RecordTiming(core.EvtSegmentOverrun, core.AxisEventNone, core.GetTime(), seg.SeqID, uint32(seg.Duration))
			break
		}
		for i := 0; i < 3; i++ {
			p.lastProfileVelocity[i] = float64(seg.Steps[i]) / p.segSeconds
		}
		p.pendingIdx++
		n++
	}
	if p.pendingIdx >= len(p.pending) {
		p.mode = modeIdle
	}
	return n
}

// pumpManual synthesizes and pushes at most one segment per call: manual
// segments can't be precomputed since the target velocity may change on
// any subsequent call, unlike a profiled move's fixed trajectory.
func (p *Planner) pumpManual(exec *core.StepExecutor) int {
	if p.IsIdle() {
		p.mode = modeIdle
		return 0
	}

	var seg core.Segment
	seg.SeqID = p.seq
	seg.Duration = p.segTicks

	prevVel, prevResidual := p.curVel, p.residual
	for i := 0; i < 3; i++ {
		maxDeltaV := p.axes[i].MaxAccel * p.segSeconds
		if p.curVel[i] < p.targetVel[i] {
			p.curVel[i] = math.Min(p.curVel[i]+maxDeltaV, p.targetVel[i])
		} else if p.curVel[i] > p.targetVel[i] {
			p.curVel[i] = math.Max(p.curVel[i]-maxDeltaV, p.targetVel[i])
		}

		stepsF := p.curVel[i]*p.segSeconds + p.residual[i]
		steps := math.Round(stepsF)
		p.residual[i] = stepsF - steps
		seg.Steps[i] = clampSteps(steps, p.segTicks)
	}

	if !exec.Submit(seg) {
		// Ring is full; retry this exact segment next call rather than
		// silently dropping it (would corrupt the residual/velocity state).
		core.RecordTiming(core.EvtSegmentOverrun, core.AxisEventNone, core.GetTime(), seg.SeqID, uint32(p.segTicks))
		p.curVel, p.residual = prevVel, prevResidual
		return 0
	}
	p.seq++
	return 1
}

// buildProfileSegments computes the full segment stream for a profiled
// move up front. Per axis it rounds the *absolute* eased position at each
// segment boundary and takes the difference of consecutive rounded
// positions; this — rather than independently rounding each segment's
// incremental delta — is what keeps the cumulative rounding error bounded
// to ±0.5 microstep and guarantees the last segment lands on exactly End,
// with no separate residual variable needed.
func buildProfileSegments(traj Trajectory, segTicks uint32, seq *uint32) []core.Segment {
	if traj.Duration <= 0 || traj.Start == traj.End {
		// Zero-duration and same-start-end moves complete instantly with
		// no segments at all; a goto to the current position pulses nothing.
		return nil
	}
	segDur := time.Duration(float64(segTicks) / core.TickHz * float64(time.Second))
	n := int(math.Ceil(float64(traj.Duration) / float64(segDur)))
	if n < 1 {
		n = 1
	}

	segs := make([]core.Segment, 0, n)
	var lastRounded [3]int64
	for i := 0; i < 3; i++ {
		lastRounded[i] = traj.Start[i]
	}

	for i := 0; i < n; i++ {
		tEnd := time.Duration(i+1) * segDur
		if tEnd > traj.Duration || i == n-1 {
			tEnd = traj.Duration
		}

		var seg core.Segment
		seg.SeqID = *seq
		*seq++

		ticks := segTicks
		if i == n-1 {
			remaining := traj.Duration - time.Duration(i)*segDur
			ticks = uint32(remaining.Seconds() * core.TickHz)
			if ticks == 0 {
				ticks = 1
			}
		}
		seg.Duration = ticks

		for axis := 0; axis < 3; axis++ {
			p := quintic.Evaluate(traj.Easing, float64(traj.Start[axis]), float64(traj.End[axis]), traj.Duration, tEnd)
			rounded := int64(math.Round(p))
			delta := rounded - lastRounded[axis]
			lastRounded[axis] = rounded
			seg.Steps[axis] = clampSteps(float64(delta), ticks)
		}

		segs = append(segs, seg)
	}
	return segs
}

// clampSteps enforces |steps| <= duration ticks (the executor can emit at
// most one step per tick per axis); exceeding it means the move asked for
// a velocity beyond what this segment length can carry, and clamping —
// rather than rejecting the move — is the spec's default policy.
func clampSteps(steps float64, ticks uint32) int32 {
	max := float64(ticks)
	if steps > max {
		steps = max
	}
	if steps < -max {
		steps = -max
	}
	return int32(steps)
}
