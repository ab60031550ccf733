package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amken3d/ptzrig/controller"
	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/homing"
	"github.com/amken3d/ptzrig/hostproto"
	"github.com/amken3d/ptzrig/planner"
	"github.com/amken3d/ptzrig/preset"
)

type stallSource struct{ triggered bool }

func (s *stallSource) Sample() (bool, error) { return s.triggered, nil }

func newAdapter(t *testing.T) (*Adapter, *controller.Controller, *core.StepExecutor) {
	t.Helper()

	pan := &core.Axis{Name: "pan", MinSteps: -100000, MaxSteps: 100000, MaxVelocity: 50000, MaxAccel: 20000}
	tilt := &core.Axis{Name: "tilt", MinSteps: -100000, MaxSteps: 100000, MaxVelocity: 50000, MaxAccel: 20000}
	zoom := &core.Axis{Name: "zoom", MinSteps: -100000, MaxSteps: 100000, MaxVelocity: 50000, MaxAccel: 20000}
	exec := core.NewStepExecutor(pan, tilt, zoom)

	lim := planner.AxisLimits{MaxVelocity: 50000, MaxAccel: 20000}
	plan := planner.New(lim, lim, lim)

	homingSeqFor := func() *homing.Sequence {
		cfg := homing.AxisHomingConfig{FastVelocity: -500, SlowVelocity: -50, BackoffDistance: 10, MaxTravel: 1000}
		src := &stallSource{triggered: true}
		trig := homing.NewTrigger(src)
		return homing.NewSequence(exec, cfg, cfg, cfg, trig, trig, trig)
	}

	ctrl := controller.New(exec, plan, homingSeqFor)
	presets := preset.NewMemStore()
	adapter := New(ctrl, presets, [3]float64{16, 16, 16})
	return adapter, ctrl, exec
}

func dispatchLine(a *Adapter, line string) string {
	req, ok := hostproto.Tokenize(line)
	if !ok {
		return ""
	}
	return a.Dispatch(req)
}

func TestVelAcceptedEntersManual(t *testing.T) {
	a, ctrl, _ := newAdapter(t)

	resp := dispatchLine(a, "VEL 100 0 -50")
	assert.Equal(t, "OK", resp)
	assert.Equal(t, controller.Manual, ctrl.Mode())
}

func TestVelRejectsWrongArgCount(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "ERR:ARG", dispatchLine(a, "VEL 100 0"))
}

func TestVelRejectsUnparsableArg(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "ERR:ARG", dispatchLine(a, "VEL abc 0 0"))
}

func TestSaveThenGotoRoundTrip(t *testing.T) {
	a, ctrl, _ := newAdapter(t)

	require.Equal(t, "OK", dispatchLine(a, "SAVE 1"))

	resp := dispatchLine(a, "GOTO 1")
	assert.Equal(t, "OK", resp)
	assert.Equal(t, controller.Profiled, ctrl.Mode())
}

func TestGotoMissingPresetIsArgError(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "ERR:ARG", dispatchLine(a, "GOTO 99"))
}

func TestPosFormatsMicrostepTriple(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "POS:0,0,0", dispatchLine(a, "POS"))
}

func TestStatusReportsModeHomedPrecisionEstop(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "STATUS:IDLE,0,0,0", dispatchLine(a, "STATUS"))

	dispatchLine(a, "PRECISION 1")
	assert.Equal(t, "STATUS:IDLE,0,1,0", dispatchLine(a, "STATUS"))
}

func TestPrecisionRejectsBadArg(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "ERR:ARG", dispatchLine(a, "PRECISION 2"))
}

func TestLimitsSetsAxisSoftBounds(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "OK", dispatchLine(a, "LIMITS PAN -5000 5000"))
}

func TestLimitsRejectsUnknownAxis(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "ERR:ARG", dispatchLine(a, "LIMITS ROLL -5000 5000"))
}

func TestConcurrentGotoReturnsBusy(t *testing.T) {
	a, _, _ := newAdapter(t)
	require.Equal(t, "OK", dispatchLine(a, "SAVE 1"))
	require.Equal(t, "OK", dispatchLine(a, "GOTO 1"))

	assert.Equal(t, "ERR:BUSY", dispatchLine(a, "GOTO 1"))
}

func TestHomeCompletesAndStatusReportsHomed(t *testing.T) {
	a, ctrl, exec := newAdapter(t)
	require.Equal(t, "OK", dispatchLine(a, "HOME"))

	for i := 0; i < 10000 && ctrl.Mode() == controller.Homing; i++ {
		ctrl.Pump()
		exec.Ring.Pop() // stand in for the executor consuming the homing segment
	}

	assert.Equal(t, "STATUS:IDLE,1,0,0", dispatchLine(a, "STATUS"))
}

func TestUnknownVerbIsArgError(t *testing.T) {
	a, _, _ := newAdapter(t)
	assert.Equal(t, "ERR:ARG", dispatchLine(a, "FROBNICATE"))
}
