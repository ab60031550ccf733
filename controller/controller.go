// Package controller arbitrates rig-wide motion mode (IDLE/MANUAL/PROFILED/
// HOMING/ESTOP), grounded on the teacher's standalone.Manager orchestration
// shape (Initialize/ProcessLine/Start/Stop/EmergencyStop) but rebuilt
// around the mode transition table this rig needs instead of gcode
// interpretation.
package controller

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/homing"
	"github.com/amken3d/ptzrig/planner"
	"github.com/amken3d/ptzrig/quintic"
)

// Mode is one of the five controller states from the transition table.
type Mode int

const (
	Idle Mode = iota
	Manual
	Profiled
	Homing
	Estop
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "IDLE"
	case Manual:
		return "MANUAL"
	case Profiled:
		return "PROFILED"
	case Homing:
		return "HOMING"
	case Estop:
		return "ESTOP"
	default:
		return "UNKNOWN"
	}
}

// precisionScale is applied to requested velocities and profiled peak
// speeds while precision mode is on.
const precisionScale = 0.25

// queueStallLimit bounds how many consecutive Pump ticks the planner may
// report "more to produce but nothing accepted" before the controller
// treats it as a real-time overrun rather than ordinary ring back-pressure.
const queueStallLimit = 16

// GotoRequest is the resolved form of a preset/GOTO command: absolute
// target microsteps plus the move shape, already looked up from whatever
// named preset the host referenced.
type GotoRequest struct {
	Target          [3]int64
	DurationSeconds float64
	Easing          quintic.Easing
}

// Controller owns ControllerState and arbitrates every mode transition.
// Host command dispatch and the Pump tick run on different goroutines, so
// every exported method that touches controller state takes mu; Positions
// and Homed read the executor's atomics without it.
type Controller struct {
	mu   sync.Mutex
	exec *core.StepExecutor
	plan *planner.Planner

	mode        Mode
	precision   bool
	softLimits  bool
	commandedV  [3]float64
	queueStalls int
	lastFault   error

	pendingGoto   *GotoRequest
	pendingHome   bool
	homingSeqFor  func() *homing.Sequence
	activeHomeSeq *homing.Sequence
}

// New builds a Controller over an already-wired executor and planner.
// homingSeqFor constructs a fresh homing.Sequence on demand (a HOME
// command always starts the PAN->TILT->ZOOM search from scratch).
func New(exec *core.StepExecutor, plan *planner.Planner, homingSeqFor func() *homing.Sequence) *Controller {
	return &Controller{
		exec:         exec,
		plan:         plan,
		softLimits:   true,
		homingSeqFor: homingSeqFor,
	}
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Precision reports whether precision (0.25x) scaling is active.
func (c *Controller) Precision() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.precision
}

// SetPrecision toggles precision scaling; takes effect on the next
// SetVelocity/SubmitGoto call, matching the teacher's "apply at next
// command" simplicity rather than retroactively rescaling an in-flight move.
func (c *Controller) SetPrecision(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.precision = enabled
}

// SoftLimitsEnabled reports whether soft-limit braking is active.
func (c *Controller) SoftLimitsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.softLimits
}

// SetSoftLimitsEnabled toggles soft-limit braking.
func (c *Controller) SetSoftLimitsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.softLimits = enabled
}

// SetAxisLimits updates an axis's soft-limit pair (the LIMITS token).
// The plain (non-atomic) MinSteps/MaxSteps fields on core.Axis are only
// ever read under this same lock (soft-limit braking, goto clamping), so
// they need no atomics of their own.
func (c *Controller) SetAxisLimits(axis core.AxisID, min, max int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(axis) < 0 || int(axis) >= len(c.exec.Axes) {
		return fmt.Errorf("axis %d: %w", axis, ErrArgument)
	}
	if min >= max {
		return fmt.Errorf("min %d >= max %d: %w", min, max, ErrArgument)
	}
	a := c.exec.Axes[axis]
	a.MinSteps = min
	a.MaxSteps = max
	return nil
}

// Positions returns each axis's current position in microsteps, read
// directly from the executor without interrupting motion.
func (c *Controller) Positions() [3]int64 {
	var pos [3]int64
	for i, a := range c.exec.Axes {
		pos[i] = a.Pos()
	}
	return pos
}

// Homed reports each axis's homed flag.
func (c *Controller) Homed() [3]bool {
	var homed [3]bool
	for i, a := range c.exec.Axes {
		homed[i] = a.IsHomed()
	}
	return homed
}

// LastFault returns the reason ESTOP last latched, or nil if it hasn't
// latched since the rig started (or was cleared via Stop()).
func (c *Controller) LastFault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFault
}

// SetVelocity implements the set_velocity event: legal from IDLE and
// MANUAL (takes effect immediately); rejected from any other mode.
func (c *Controller) SetVelocity(vel [3]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Idle, Manual:
		c.mode = Manual
		c.commandedV = scaleVelocity(vel, c.precisionFactor())
		return nil
	default:
		return fmt.Errorf("set_velocity rejected in %s: %w", c.mode, ErrState)
	}
}

// SubmitGoto implements submit_goto: immediate from IDLE, latched-pending
// (decelerate current manual motion to zero first) from MANUAL, rejected
// otherwise.
func (c *Controller) SubmitGoto(req GotoRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Idle:
		c.startGoto(req)
		return nil
	case Manual:
		c.pendingGoto = &req
		c.commandedV = [3]float64{}
		return nil
	default:
		return fmt.Errorf("submit_goto rejected in %s: %w", c.mode, ErrState)
	}
}

func (c *Controller) startGoto(req GotoRequest) {
	start := c.Positions()
	scale := c.precisionFactor()
	duration := time.Duration(req.DurationSeconds / scale * float64(time.Second))

	end := req.Target
	if c.softLimits {
		for i, a := range c.exec.Axes {
			end[i] = a.ClampToLimits(end[i])
		}
	}

	c.mode = Profiled
	c.plan.SubmitProfile(planner.Trajectory{
		Start:    start,
		End:      end,
		Duration: duration,
		Easing:   req.Easing,
	})
}

// Home implements the home event: immediate from IDLE, latched-pending
// from MANUAL, rejected otherwise.
func (c *Controller) Home() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Idle:
		c.startHoming()
		return nil
	case Manual:
		c.pendingHome = true
		c.commandedV = [3]float64{}
		return nil
	default:
		return fmt.Errorf("home rejected in %s: %w", c.mode, ErrState)
	}
}

func (c *Controller) startHoming() {
	c.mode = Homing
	c.activeHomeSeq = c.homingSeqFor()
}

// Stop implements the stop event per the transition table: MANUAL/PROFILED
// decelerate to IDLE via the slew limiter, HOMING hard-stops to ESTOP
// (a homing sequence can't be safely paused mid-search), ESTOP itself
// clears on Stop (acknowledged by the host) back to IDLE.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Idle:
		return nil
	case Manual:
		c.plan.SetManualVelocity([3]float64{})
		c.mode = Idle
		c.pendingGoto = nil
		c.pendingHome = false
		return nil
	case Profiled:
		cur := c.plan.CurrentVelocity()
		c.plan.SeedManualVelocity(cur, [3]float64{})
		c.mode = Idle
		return nil
	case Homing:
		c.fault(nil)
		return nil
	case Estop:
		c.exec.Rearm()
		c.mode = Idle
		c.queueStalls = 0
		c.lastFault = nil
		core.ResetTimerPastErrors()
		return nil
	}
	return nil
}

// fault asserts ESTOP, matching the transition table's "fault" column
// from every state. cause is recorded for the STATUS report; it may be
// nil when the fault is a plain host-acknowledged stop-from-ESTOP (HOMING
// interrupted by a STOP, which has no independent fault cause of its own).
func (c *Controller) fault(cause error) {
	c.mode = Estop
	c.exec.EStop()
	c.plan.Abort()
	c.activeHomeSeq = nil
	c.pendingGoto = nil
	c.pendingHome = false
	c.lastFault = cause
	core.RecordTiming(core.EvtEStop, core.AxisEventNone, core.GetTime(), core.GetTimerPastErrors(), 0)
	core.DumpTimingRing()
}

// Pump drives the controller's per-tick responsibilities: advancing an
// active homing sequence, applying soft-limit braking to manual velocity,
// resolving a latched pending goto/home once deceleration settles, and
// feeding the planner's output into the executor. Called at the
// controller's cadence (spec recommends ~100Hz).
func (c *Controller) Pump() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if core.IsShutdown() && c.mode != Estop {
		c.fault(fmt.Errorf("timer watchdog: %w", ErrDriverFault))
		return
	}

	switch c.mode {
	case Homing:
		c.pumpHoming()
		return
	case Estop:
		return
	}

	if c.mode == Manual {
		c.applySoftLimits()
		if c.plan.CurrentVelocity() == ([3]float64{}) && c.commandedV == ([3]float64{}) {
			c.resolvePending()
		}
	}

	if c.mode == Profiled && c.plan.IsIdle() {
		c.mode = Idle
	}

	n := c.plan.Pump(c.exec)
	c.trackQueueHealth(n)
}

func (c *Controller) pumpHoming() {
	done, err := c.activeHomeSeq.Step()
	if err != nil {
		c.fault(fmt.Errorf("%v: %w", err, ErrHomingFailed))
		return
	}
	if done {
		c.activeHomeSeq = nil
		c.mode = Idle
	}
}

func (c *Controller) resolvePending() {
	switch {
	case c.pendingGoto != nil:
		req := *c.pendingGoto
		c.pendingGoto = nil
		c.startGoto(req)
	case c.pendingHome:
		c.pendingHome = false
		c.startHoming()
	}
}

func (c *Controller) applySoftLimits() {
	if !c.softLimits {
		c.plan.SetManualVelocity(c.commandedV)
		return
	}
	var braked [3]float64
	for i, a := range c.exec.Axes {
		braked[i] = brakeTowardLimit(a, c.commandedV[i])
	}
	c.plan.SetManualVelocity(braked)
}

// trackQueueHealth treats repeated zero-progress Pump calls, while the
// planner still has work to do, as a real-time overrun: the executor
// isn't draining the ring fast enough to make room for new segments.
func (c *Controller) trackQueueHealth(pushed int) {
	if pushed > 0 || c.plan.IsIdle() {
		c.queueStalls = 0
		return
	}
	c.queueStalls++
	if c.queueStalls >= queueStallLimit {
		c.fault(ErrQueueOverrun)
	}
}

func (c *Controller) precisionFactor() float64 {
	if c.precision {
		return precisionScale
	}
	return 1.0
}

func scaleVelocity(v [3]float64, scale float64) [3]float64 {
	for i := range v {
		v[i] *= scale
	}
	return v
}

// brakeTowardLimit reduces v proportionally as the axis approaches its
// soft limit in the direction of travel, reaching exactly zero at the
// limit and holding there, per §4.5's soft-limit responsibility.
func brakeTowardLimit(a *core.Axis, v float64) float64 {
	if v == 0 {
		return 0
	}
	pos := a.Pos()

	var distToLimit float64
	if v > 0 {
		distToLimit = float64(a.MaxSteps - pos)
	} else {
		distToLimit = float64(pos - a.MinSteps)
	}
	if distToLimit <= 0 {
		return 0
	}
	if a.MaxAccel <= 0 {
		return v
	}
	brakingDist := v * v / (2 * a.MaxAccel)
	if distToLimit >= brakingDist {
		return v
	}
	limited := math.Sqrt(2 * a.MaxAccel * distToLimit)
	if v < 0 {
		limited = -limited
	}
	return limited
}
