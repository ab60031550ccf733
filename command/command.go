// Package command implements the Command Adapter (C6): a thin translator
// from an already-tokenized host Request to controller.Controller method
// calls, formatting the exact response grammar of spec.md §6. Grounded on
// the teacher's standalone/gcode interpreter's Execute/executeG/executeM
// switch-dispatch shape, with the gcode vocabulary replaced by the
// VEL/GOTO/SAVE/HOME/POS/STATUS/STOP/PRECISION/LIMITS token set this rig
// actually speaks. The line tokenizer that turns raw serial bytes into a
// Request lives in hostproto, kept separate so this package's only
// dependency is the already-parsed shape.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amken3d/ptzrig/controller"
	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/hostproto"
	"github.com/amken3d/ptzrig/preset"
	"github.com/amken3d/ptzrig/quintic"
)

// Request is the tokenized host command this package dispatches.
type Request = hostproto.Request

// DefaultSaveDuration is applied to a SAVE'd preset's move shape when the
// host doesn't otherwise specify one; GOTO-ing back to a saved framing
// defaults to a comfortable one-second ease rather than an instant jump.
const DefaultSaveDuration = 1.0

// Adapter owns no state of its own beyond its collaborators: every
// Dispatch call either reads or mutates the Controller/preset.Store it
// was built with.
type Adapter struct {
	ctrl           *controller.Controller
	presets        preset.Store
	microstepScale [3]float64 // pan, tilt, zoom: microsteps per full step
}

// New builds an Adapter. microstepScale converts the host's full-steps/sec
// VEL argument into the microsteps/sec the controller expects (spec §6:
// "the core multiplies by MICROSTEP_SCALE"), one scale per axis since this
// rig's PAN/TILT/ZOOM drivers aren't necessarily microstepped identically.
func New(ctrl *controller.Controller, presets preset.Store, microstepScale [3]float64) *Adapter {
	return &Adapter{ctrl: ctrl, presets: presets, microstepScale: microstepScale}
}

// Dispatch executes req and returns the exact response line (without a
// trailing newline; the transport is responsible for framing).
func (a *Adapter) Dispatch(req Request) string {
	switch req.Name {
	case "VEL":
		return a.handleVel(req.Args)
	case "GOTO":
		return a.handleGoto(req.Args)
	case "SAVE":
		return a.handleSave(req.Args)
	case "HOME":
		return a.handleHome(req.Args)
	case "POS":
		return a.handlePos(req.Args)
	case "STATUS":
		return a.handleStatus(req.Args)
	case "STOP":
		return a.handleStop(req.Args)
	case "PRECISION":
		return a.handlePrecision(req.Args)
	case "LIMITS":
		return a.handleLimits(req.Args)
	default:
		return "ERR:ARG"
	}
}

func (a *Adapter) handleVel(args []string) string {
	if len(args) != 3 {
		return "ERR:ARG"
	}
	var micro [3]float64
	for i, s := range args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return "ERR:ARG"
		}
		micro[i] = v * a.microstepScale[i]
	}
	if err := a.ctrl.SetVelocity(micro); err != nil {
		return a.errResponse(err)
	}
	return "OK"
}

func (a *Adapter) handleGoto(args []string) string {
	if len(args) != 1 {
		return "ERR:ARG"
	}
	rec, err := a.presets.Load(args[0])
	if err != nil {
		return "ERR:ARG"
	}
	easing, err := quintic.ParseEasing(rec.Easing)
	if err != nil {
		return "ERR:ARG"
	}
	if rec.Precision {
		a.ctrl.SetPrecision(true)
	}
	duration := rec.DurationSeconds
	if rec.SpeedScale > 0 {
		duration /= rec.SpeedScale
	}
	goReq := controller.GotoRequest{
		Target:          rec.TargetMicrosteps,
		DurationSeconds: duration,
		Easing:          easing,
	}
	if err := a.ctrl.SubmitGoto(goReq); err != nil {
		return a.errResponse(err)
	}
	return "OK"
}

func (a *Adapter) handleSave(args []string) string {
	if len(args) != 1 {
		return "ERR:ARG"
	}
	rec := preset.PresetRecord{
		TargetMicrosteps: a.ctrl.Positions(),
		DurationSeconds:  DefaultSaveDuration,
		Easing:           quintic.Quintic.String(),
		ApproachMode:     "direct",
		SpeedScale:       1.0,
		AccelScale:       1.0,
		Precision:        a.ctrl.Precision(),
	}
	if err := a.presets.Save(args[0], rec); err != nil {
		return "ERR:ARG"
	}
	return "OK"
}

func (a *Adapter) handleHome(args []string) string {
	if len(args) != 0 {
		return "ERR:ARG"
	}
	if err := a.ctrl.Home(); err != nil {
		return a.errResponse(err)
	}
	return "OK"
}

func (a *Adapter) handlePos(args []string) string {
	if len(args) != 0 {
		return "ERR:ARG"
	}
	pos := a.ctrl.Positions()
	return fmt.Sprintf("POS:%d,%d,%d", pos[0], pos[1], pos[2])
}

func (a *Adapter) handleStatus(args []string) string {
	if len(args) != 0 {
		return "ERR:ARG"
	}
	homed := a.ctrl.Homed()
	allHomed := homed[core.AxisPan] && homed[core.AxisTilt] && homed[core.AxisZoom]
	return fmt.Sprintf("STATUS:%s,%s,%s,%s",
		a.ctrl.Mode().String(),
		flag(allHomed),
		flag(a.ctrl.Precision()),
		flag(a.ctrl.Mode() == controller.Estop),
	)
}

func (a *Adapter) handleStop(args []string) string {
	if len(args) != 0 {
		return "ERR:ARG"
	}
	if err := a.ctrl.Stop(); err != nil {
		return a.errResponse(err)
	}
	return "OK"
}

func (a *Adapter) handlePrecision(args []string) string {
	if len(args) != 1 {
		return "ERR:ARG"
	}
	switch args[0] {
	case "0":
		a.ctrl.SetPrecision(false)
	case "1":
		a.ctrl.SetPrecision(true)
	default:
		return "ERR:ARG"
	}
	return "OK"
}

func (a *Adapter) handleLimits(args []string) string {
	if len(args) != 3 {
		return "ERR:ARG"
	}
	axis, ok := parseAxis(args[0])
	if !ok {
		return "ERR:ARG"
	}
	min, errMin := strconv.ParseInt(args[1], 10, 64)
	max, errMax := strconv.ParseInt(args[2], 10, 64)
	if errMin != nil || errMax != nil {
		return "ERR:ARG"
	}
	if err := a.ctrl.SetAxisLimits(axis, min, max); err != nil {
		return a.errResponse(err)
	}
	return "OK"
}

func parseAxis(s string) (core.AxisID, bool) {
	switch strings.ToUpper(s) {
	case "PAN":
		return core.AxisPan, true
	case "TILT":
		return core.AxisTilt, true
	case "ZOOM":
		return core.AxisZoom, true
	default:
		return 0, false
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// errResponse maps a controller sentinel error to the ERR:reason token of
// §6. ErrState is split into BUSY vs. FAULT by checking whether the
// rejection came from an active ESTOP latch, since the controller itself
// (§4.5's transition table) represents both as the same "reject" outcome.
func (a *Adapter) errResponse(err error) string {
	switch {
	case errors.Is(err, controller.ErrArgument):
		return "ERR:ARG"
	case errors.Is(err, controller.ErrLimit):
		return "ERR:LIMIT"
	case errors.Is(err, controller.ErrState):
		if a.ctrl.Mode() == controller.Estop {
			return "ERR:FAULT"
		}
		return "ERR:BUSY"
	case errors.Is(err, controller.ErrHomingFailed),
		errors.Is(err, controller.ErrQueueOverrun),
		errors.Is(err, controller.ErrDriverFault):
		return "ERR:FAULT"
	default:
		return "ERR:ARG"
	}
}
