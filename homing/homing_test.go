package homing

import (
	"errors"
	"testing"

	"github.com/amken3d/ptzrig/core"
)

// scriptedSource fires triggered=true once callCount reaches triggerAt.
type scriptedSource struct {
	callCount int
	triggerAt int
}

func (s *scriptedSource) Sample() (bool, error) {
	s.callCount++
	return s.callCount >= s.triggerAt, nil
}

func newExecutor() *core.StepExecutor {
	return core.NewStepExecutor(&core.Axis{Name: "pan"}, &core.Axis{Name: "tilt"}, &core.Axis{Name: "zoom"})
}

func fastCfg() AxisHomingConfig {
	return AxisHomingConfig{
		FastVelocity:    -2000,
		SlowVelocity:    -200,
		BackoffDistance: 50,
		MinTravel:       0,
		MaxTravel:       100000,
	}
}

func TestSequenceHomesAllThreeAxesInOrder(t *testing.T) {
	exec := newExecutor()
	pan := &scriptedSource{triggerAt: 4}
	tilt := &scriptedSource{triggerAt: 4}
	zoom := &scriptedSource{triggerAt: 4}

	seq := NewSequence(exec, fastCfg(), fastCfg(), fastCfg(),
		NewTrigger(pan), NewTrigger(tilt), NewTrigger(zoom))

	done := false
	var err error
	for i := 0; i < 100000 && !done; i++ {
		done, err = seq.Step()
		if err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
		exec.Ring.Pop() // stand in for the executor consuming the segment
	}
	if !done {
		t.Fatal("homing did not complete within iteration budget")
	}
	for _, axis := range exec.Axes {
		if !axis.IsHomed() {
			t.Errorf("axis %s not marked homed", axis.Name)
		}
		if axis.Pos() != 0 {
			t.Errorf("axis %s position = %d, want 0 after homing", axis.Name, axis.Pos())
		}
	}
}

func TestSequenceFailsOnMaxTravelExceeded(t *testing.T) {
	exec := newExecutor()
	neverTrigger := &scriptedSource{triggerAt: 1 << 30}

	cfg := fastCfg()
	cfg.MaxTravel = 10 // tiny budget, fails almost immediately

	seq := NewSequence(exec, cfg, fastCfg(), fastCfg(),
		NewTrigger(neverTrigger), NewTrigger(&scriptedSource{triggerAt: 1 << 30}), NewTrigger(&scriptedSource{triggerAt: 1 << 30}))

	var err error
	for i := 0; i < 1000 && err == nil; i++ {
		_, err = seq.Step()
		exec.Ring.Pop()
	}
	if !errors.Is(err, ErrMaxTravelExceeded) {
		t.Fatalf("expected ErrMaxTravelExceeded, got %v", err)
	}
}

// TestSequenceIgnoresTriggerBeforeMinTravel proves the start-up-transient
// guard actually suppresses an early trigger in APPROACH_FAST (spec.md
// §4.4): a stall signal that fires on the very first sample must not
// confirm homing before MinTravel microsteps have been covered. It
// forces the point by setting MaxTravel just below MinTravel, so the
// axis can only fail (not succeed) if the guard is working — a bare
// "does it home" assertion wouldn't distinguish a real guard from a bug
// that made it a permanent no-op.
func TestSequenceIgnoresTriggerBeforeMinTravel(t *testing.T) {
	exec := newExecutor()
	// triggerAt=1 fires on the very first sample, simulating a sensorless
	// stall signal asserting as a start-up transient before real travel.
	zoom := &scriptedSource{triggerAt: 1}

	cfg := fastCfg()
	cfg.MinTravel = 500
	cfg.MaxTravel = 100 // below MinTravel: must fail if the guard suppresses the early trigger

	seq := NewSequence(exec, fastCfg(), fastCfg(), cfg,
		NewTrigger(&scriptedSource{triggerAt: 1}), NewTrigger(&scriptedSource{triggerAt: 1}), NewTrigger(zoom))

	var err error
	for i := 0; i < 10000 && err == nil; i++ {
		_, err = seq.Step()
		exec.Ring.Pop()
	}
	if !errors.Is(err, ErrMaxTravelExceeded) {
		t.Fatalf("expected ErrMaxTravelExceeded (MinTravel guard should have suppressed the early trigger), got %v", err)
	}
	if exec.Axes[core.AxisZoom].IsHomed() {
		t.Fatal("ZOOM must not be marked homed when homing failed")
	}
}

func TestSequenceOnlyStepsOneAxisAtATime(t *testing.T) {
	exec := newExecutor()
	pan := &scriptedSource{triggerAt: 3}
	seq := NewSequence(exec, fastCfg(), fastCfg(), fastCfg(),
		NewTrigger(pan), NewTrigger(&scriptedSource{triggerAt: 1 << 30}), NewTrigger(&scriptedSource{triggerAt: 1 << 30}))

	for i := 0; i < 20; i++ {
		if seq.Done() {
			break
		}
		seq.Step()
		if exec.Axes[core.AxisTilt].Pos() != 0 || exec.Axes[core.AxisZoom].Pos() != 0 {
			t.Fatalf("iteration %d: TILT/ZOOM moved while PAN is still homing", i)
		}
		seg, ok := exec.Ring.Pop()
		if ok && (seg.Steps[core.AxisTilt] != 0 || seg.Steps[core.AxisZoom] != 0) {
			t.Fatalf("iteration %d: homing segment moved more than one axis: %+v", i, seg)
		}
	}
}
