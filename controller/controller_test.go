package controller

import (
	"errors"
	"testing"

	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/homing"
	"github.com/amken3d/ptzrig/planner"
	"github.com/amken3d/ptzrig/quintic"
)

// nopGPIO satisfies core.GPIODriver for tests that tick the executor; pin
// state is irrelevant here, only the position bookkeeping is under test.
type nopGPIO struct{}

func (nopGPIO) ConfigureOutput(core.GPIOPin) error        { return nil }
func (nopGPIO) ConfigureInputPullUp(core.GPIOPin) error   { return nil }
func (nopGPIO) ConfigureInputPullDown(core.GPIOPin) error { return nil }
func (nopGPIO) SetPin(core.GPIOPin, bool) error           { return nil }
func (nopGPIO) GetPin(core.GPIOPin) (bool, error)         { return false, nil }
func (nopGPIO) ReadPin(core.GPIOPin) bool                 { return false }

func newRig() (*core.StepExecutor, *planner.Planner) {
	core.SetGPIODriver(nopGPIO{})
	pan := &core.Axis{Name: "pan", MinSteps: -100000, MaxSteps: 100000, MaxVelocity: 5000, MaxAccel: 2000}
	tilt := &core.Axis{Name: "tilt", MinSteps: -100000, MaxSteps: 100000, MaxVelocity: 5000, MaxAccel: 2000}
	zoom := &core.Axis{Name: "zoom", MinSteps: -100000, MaxSteps: 100000, MaxVelocity: 5000, MaxAccel: 2000}
	exec := core.NewStepExecutor(pan, tilt, zoom)
	lim := planner.AxisLimits{MaxVelocity: 5000, MaxAccel: 2000}
	p := planner.New(lim, lim, lim)
	return exec, p
}

func neverHomingFactory(exec *core.StepExecutor) func() *homing.Sequence {
	return func() *homing.Sequence {
		cfg := homing.AxisHomingConfig{FastVelocity: -500, SlowVelocity: -50, BackoffDistance: 10, MaxTravel: 1000}
		always := trigSource{triggerAt: 1}
		return homing.NewSequence(exec, cfg, cfg, cfg,
			homing.NewTrigger(&always), homing.NewTrigger(&always), homing.NewTrigger(&always))
	}
}

type trigSource struct {
	calls     int
	triggerAt int
}

func (t *trigSource) Sample() (bool, error) {
	t.calls++
	return t.calls >= t.triggerAt, nil
}

func TestSetVelocityFromIdleEntersManual(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	if err := c.SetVelocity([3]float64{1000, 0, 0}); err != nil {
		t.Fatalf("SetVelocity: %v", err)
	}
	if c.Mode() != Manual {
		t.Errorf("Mode() = %v, want Manual", c.Mode())
	}
}

func TestSubmitGotoRejectedWhileProfiled(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	if err := c.SubmitGoto(GotoRequest{Target: [3]int64{1000, 0, 0}, DurationSeconds: 1, Easing: quintic.Quintic}); err != nil {
		t.Fatalf("first SubmitGoto: %v", err)
	}
	if c.Mode() != Profiled {
		t.Fatalf("Mode() = %v, want Profiled", c.Mode())
	}

	err := c.SubmitGoto(GotoRequest{Target: [3]int64{2000, 0, 0}, DurationSeconds: 1})
	if !errors.Is(err, ErrState) {
		t.Errorf("expected ErrState (BUSY) for concurrent GOTO, got %v", err)
	}

	if err := c.SetVelocity([3]float64{100, 0, 0}); !errors.Is(err, ErrState) {
		t.Errorf("expected ErrState (BUSY) for VEL while PROFILED, got %v", err)
	}
}

// TestSubmitGotoClampsTargetToSoftLimits proves a GOTO whose requested target
// lies beyond an axis's soft-limit pair lands at the limit, not the raw
// request — soft limits bound every destination the planner is asked to
// reach, not just the velocity applied during manual jogging.
func TestSubmitGotoClampsTargetToSoftLimits(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	if err := c.SetAxisLimits(core.AxisPan, -500, 500); err != nil {
		t.Fatalf("SetAxisLimits: %v", err)
	}

	if err := c.SubmitGoto(GotoRequest{Target: [3]int64{9000, 0, 0}, DurationSeconds: 1, Easing: quintic.Quintic}); err != nil {
		t.Fatalf("SubmitGoto: %v", err)
	}

	for i := 0; i < 100000 && !p.IsIdle(); i++ {
		p.Pump(exec)
		exec.Tick()
	}
	for i := 0; i < 20000 && !exec.IsIdle(); i++ {
		exec.Tick()
	}

	if pos := exec.Axes[core.AxisPan].Pos(); pos != 500 {
		t.Errorf("pan position = %d, want clamped to 500", pos)
	}
}

// TestSubmitGotoIgnoresLimitsWhenDisabled proves SetSoftLimitsEnabled(false)
// also opts a GOTO target out of clamping, matching the same toggle used for
// manual-velocity braking.
func TestSubmitGotoIgnoresLimitsWhenDisabled(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))
	c.SetSoftLimitsEnabled(false)

	if err := c.SetAxisLimits(core.AxisPan, -500, 500); err != nil {
		t.Fatalf("SetAxisLimits: %v", err)
	}
	if err := c.SubmitGoto(GotoRequest{Target: [3]int64{9000, 0, 0}, DurationSeconds: 1, Easing: quintic.Quintic}); err != nil {
		t.Fatalf("SubmitGoto: %v", err)
	}

	for i := 0; i < 100000 && !p.IsIdle(); i++ {
		p.Pump(exec)
		exec.Tick()
	}
	for i := 0; i < 20000 && !exec.IsIdle(); i++ {
		exec.Tick()
	}

	if pos := exec.Axes[core.AxisPan].Pos(); pos != 9000 {
		t.Errorf("pan position = %d, want unclamped 9000", pos)
	}
}

func TestPrecisionScalesCommandedVelocity(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	c.SetPrecision(true)
	if err := c.SetVelocity([3]float64{1000, 0, 0}); err != nil {
		t.Fatalf("SetVelocity: %v", err)
	}
	if c.commandedV[0] != 250 {
		t.Errorf("precision-scaled commandedV = %v, want 250", c.commandedV[0])
	}
}

func TestSoftLimitBrakesToExactlyTheLimit(t *testing.T) {
	exec, p := newRig()
	exec.Axes[core.AxisPan].SetPos(99990)
	c := New(exec, p, neverHomingFactory(exec))

	if err := c.SetVelocity([3]float64{5000, 0, 0}); err != nil {
		t.Fatalf("SetVelocity: %v", err)
	}
	for i := 0; i < 2000 && exec.Axes[core.AxisPan].Pos() < 100000; i++ {
		c.Pump()
		for {
			seg, ok := exec.Ring.Pop()
			if !ok {
				break
			}
			exec.Axes[core.AxisPan].SetPos(exec.Axes[core.AxisPan].Pos() + int64(seg.Steps[core.AxisPan]))
		}
	}
	if got := exec.Axes[core.AxisPan].Pos(); got > 100000 {
		t.Errorf("pan overshot the soft limit: %d > 100000", got)
	} else if got < 99999 {
		t.Errorf("pan settled at %d, expected braking to land it on (or a microstep short of) the 100000 soft limit", got)
	}
}

func TestFaultLatchesEstopAndRejectsCommands(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	c.fault(ErrDriverFault)
	if c.Mode() != Estop {
		t.Fatalf("Mode() = %v, want Estop", c.Mode())
	}
	if !exec.IsEStopped() {
		t.Error("expected executor to have EStop latched")
	}
	if err := c.SetVelocity([3]float64{1, 0, 0}); !errors.Is(err, ErrState) {
		t.Errorf("expected SetVelocity to reject while ESTOP, got %v", err)
	}
	if !errors.Is(c.LastFault(), ErrDriverFault) {
		t.Errorf("LastFault() = %v, want ErrDriverFault", c.LastFault())
	}
}

func TestStopClearsEstopBackToIdle(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))
	c.fault(ErrDriverFault)

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Mode() != Idle {
		t.Errorf("Mode() = %v, want Idle after Stop clears ESTOP", c.Mode())
	}
	if exec.IsEStopped() {
		t.Error("expected executor EStop to be rearmed")
	}
}

func TestHomeCompletesAndReturnsToIdle(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	if err := c.Home(); err != nil {
		t.Fatalf("Home: %v", err)
	}
	if c.Mode() != Homing {
		t.Fatalf("Mode() = %v, want Homing", c.Mode())
	}

	for i := 0; i < 100000 && c.Mode() == Homing; i++ {
		c.Pump()
		exec.Ring.Pop() // stand in for the executor consuming the homing segment
	}
	if c.Mode() != Idle {
		t.Fatalf("Mode() = %v, want Idle once homing completes", c.Mode())
	}
	for _, homed := range c.Homed() {
		if !homed {
			t.Error("expected all axes homed after Home() completes")
		}
	}
}

func TestManualStopDeceleratesThenSettlesIdle(t *testing.T) {
	exec, p := newRig()
	c := New(exec, p, neverHomingFactory(exec))

	c.SetVelocity([3]float64{2000, 0, 0})
	for i := 0; i < 5; i++ {
		c.Pump()
	}
	c.Stop()
	if c.Mode() != Idle {
		t.Fatalf("Mode() = %v, want Idle immediately after Stop (decel continues in background)", c.Mode())
	}
	for i := 0; i < 200 && !p.IsIdle(); i++ {
		c.Pump()
		exec.Ring.Pop() // stand in for the executor consuming the segment
	}
	if !p.IsIdle() {
		t.Error("expected planner to settle idle once deceleration completes")
	}
}
