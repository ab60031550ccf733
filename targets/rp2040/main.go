//go:build rp2040 || rp2350

package main

import (
	"machine"
	"time"

	"github.com/amken3d/ptzrig/command"
	"github.com/amken3d/ptzrig/config"
	"github.com/amken3d/ptzrig/controller"
	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/homing"
	"github.com/amken3d/ptzrig/hostproto"
	"github.com/amken3d/ptzrig/planner"
	"github.com/amken3d/ptzrig/preset"
	"github.com/amken3d/ptzrig/targets/pio"
)

// controllerCadence is the controller task's pump rate (§5 recommends
// ~100Hz: fast enough to keep the planner's ring fed, slow enough to run
// comfortably off the timer ISR on the regular Go scheduler).
const controllerCadence = 10 * time.Millisecond

// main assembles every C1-C6 component plus the host-facing command
// adapter for this hardware target, grounded on the teacher's main()
// assembly shape (one driver registered per peripheral, then a single
// blocking loop) but wired to the PTZ rig domain instead of Klipper's
// binary dictionary protocol.
func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	cfg := config.DefaultMachineConfig()

	// Timing-ring dumps and shutdown reasons ride the same CDC link as the
	// protocol; their [TIMING]/[SHUTDOWN] prefixes keep them distinguishable
	// from response lines on the host side.
	core.SetDebugWriter(func(s string) {
		_, _ = USBWriteBytes([]byte(s + "\r\n"))
	})

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)
	spiDriver := NewRP2040SPIDriver()
	core.SetSPIDriver(spiDriver)

	pan := buildAxis("pan", cfg.Pan)
	tilt := buildAxis("tilt", cfg.Tilt)
	zoom := buildAxis("zoom", cfg.Zoom)

	// Each axis's STEP pin gets a PIO state machine shaping its pulses in
	// hardware, so the 40kHz tick ISR only decides when to step. A failed
	// Init (e.g. no free state machine) falls back to plain register writes.
	for i, a := range [...]*core.Axis{pan, tilt, zoom} {
		gen := pio.NewPulseGenerator(0, uint8(i))
		if err := gen.Init(uint8(a.StepPin)); err == nil {
			gpioDriver.AttachPulseGenerator(a.StepPin, gen)
		}
		_ = gpioDriver.ConfigureOutput(a.StepPin)
		_ = gpioDriver.ConfigureOutput(a.DirPin)
		if a.HasEndstop {
			_ = gpioDriver.ConfigureInputPullUp(a.EndstopPin)
		}
	}

	exec := core.NewStepExecutor(pan, tilt, zoom)

	plan := planner.New(
		axisLimits(cfg.Pan), axisLimits(cfg.Tilt), axisLimits(cfg.Zoom),
	)

	panTrig := homing.NewTrigger(homing.EndstopSource{Pin: core.GPIOPin(cfg.Pan.EndstopPin)})
	tiltTrig := homing.NewTrigger(homing.EndstopSource{Pin: core.GPIOPin(cfg.Tilt.EndstopPin)})
	zoomTrig := homing.NewTrigger(buildZoomStallSource(cfg, spiDriver))

	homingSeqFor := func() *homing.Sequence {
		return homing.NewSequence(exec,
			homingConfig(cfg.Pan), homingConfig(cfg.Tilt), homingConfig(cfg.Zoom),
			panTrig, tiltTrig, zoomTrig)
	}

	ctrl := controller.New(exec, plan, homingSeqFor)

	// RP2040 has no writable filesystem wired up for this target; presets
	// live for the power cycle only. A board with an attached flash/SD
	// filesystem would swap this for preset.NewFileStore instead.
	presets := preset.NewMemStore()
	scale := [3]float64{cfg.Pan.MicrostepScale, cfg.Tilt.MicrostepScale, cfg.Zoom.MicrostepScale}
	adapter := command.New(ctrl, presets, scale)

	InitClock()
	core.TimerInit()
	InitUSB()
	InitTickTimer(exec)

	// Unsolicited status reports let the host notice a fault (e.g. ESTOP
	// from a stalled axis) without polling STATUS itself; grounded on the
	// teacher's TriggerSync.ReportTimer periodic-report pattern.
	core.NewStatusReporter(statusReportTicks, func() {
		resp := adapter.Dispatch(hostproto.Request{Name: "STATUS"})
		_, _ = USBWriteBytes([]byte(resp + "\r\n"))
	})

	go pumpController(ctrl)
	go pumpTimers()
	go watchFault(ctrl, led)

	flashBoot(led)
	runHostLoop(adapter)
}

// statusReportTicks is one second of RP2040 hardware timer ticks (1MHz),
// the cadence unsolicited STATUS reports are pushed at.
const statusReportTicks = 1_000_000

// pumpTimers drains the software timer queue (core.ScheduleTimer) that
// backs periodic reporters like the status broadcast above.
func pumpTimers() {
	ticker := time.NewTicker(controllerCadence)
	for range ticker.C {
		core.ProcessTimers()
	}
}

func axisLimits(ac config.AxisConfig) planner.AxisLimits {
	return planner.AxisLimits{
		MaxVelocity: ac.MaxVelocity * ac.MicrostepScale,
		MaxAccel:    ac.MaxAccel * ac.MicrostepScale,
	}
}

func homingConfig(ac config.AxisConfig) homing.AxisHomingConfig {
	return homing.AxisHomingConfig{
		FastVelocity:    ac.HomeFastVelocity * ac.MicrostepScale,
		SlowVelocity:    ac.HomeSlowVelocity * ac.MicrostepScale,
		BackoffDistance: ac.BackoffDistance * ac.MicrostepScale,
		MinTravel:       ac.MinTravel * ac.MicrostepScale,
		MaxTravel:       ac.MaxTravel * ac.MicrostepScale,
	}
}

func buildAxis(name string, ac config.AxisConfig) *core.Axis {
	return &core.Axis{
		Name:           name,
		StepPin:        core.GPIOPin(ac.StepPin),
		DirPin:         core.GPIOPin(ac.DirPin),
		HasEndstop:     ac.HasEndstop,
		EndstopPin:     core.GPIOPin(ac.EndstopPin),
		DirInverted:    ac.DirInverted,
		MicrostepScale: ac.MicrostepScale,
		MinSteps:       int64(ac.MinPosition * ac.MicrostepScale),
		MaxSteps:       int64(ac.MaxPosition * ac.MicrostepScale),
		MaxVelocity:    ac.MaxVelocity * ac.MicrostepScale,
		MaxAccel:       ac.MaxAccel * ac.MicrostepScale,
	}
}

// buildZoomStallSource wires ZOOM's sensorless datum source against the
// TMC5240 on cfg.ZoomSPI. A bus/reader configuration failure degrades to
// a Source that never trips, so ZOOM homing fails safely via the
// MaxTravel watchdog instead of ever reporting a false trigger.
func buildZoomStallSource(cfg *config.MachineConfig, spiDriver *RP2040SPIDriver) homing.StallDetector {
	busHandle, err := spiDriver.ConfigureBus(core.SPIConfig{
		BusID: core.SPIBusID(cfg.ZoomSPI.BusID),
		Mode:  core.SPIMode(cfg.ZoomSPI.Mode),
		Rate:  cfg.ZoomSPI.RateHz,
	})
	if err != nil {
		return homing.StallDetector{Threshold: cfg.ZoomSPI.StallThreshold}
	}
	reader, err := core.NewStallReader(core.GPIOPin(cfg.ZoomSPI.CSPin), cfg.ZoomSPI.ActiveHigh, busHandle)
	if err != nil {
		return homing.StallDetector{Threshold: cfg.ZoomSPI.StallThreshold}
	}
	return homing.StallDetector{Reader: reader, Threshold: cfg.ZoomSPI.StallThreshold}
}

// pumpController drives the controller task's cadence from a goroutine
// separate from the ISR-driven executor tick, matching the two-context
// split of §5 (ISR context vs. cooperative controller task).
func pumpController(ctrl *controller.Controller) {
	ticker := time.NewTicker(controllerCadence)
	for range ticker.C {
		ctrl.Pump()
	}
}

// watchFault lights the LED solid for as long as the controller is
// latched in ESTOP, giving a host-independent visual fault indicator.
func watchFault(ctrl *controller.Controller, led machine.Pin) {
	ticker := time.NewTicker(controllerCadence)
	for range ticker.C {
		led.Set(ctrl.Mode() == controller.Estop)
	}
}

// flashBoot blinks the LED a fixed number of times to confirm the rig
// reached a running main loop, the same boot-confirmation idiom the
// teacher's standalone mode uses.
func flashBoot(led machine.Pin) {
	for i := 0; i < 3; i++ {
		led.High()
		time.Sleep(200 * time.Millisecond)
		led.Low()
		time.Sleep(200 * time.Millisecond)
	}
}

// runHostLoop reads host command lines from USB-CDC, dispatches each
// through adapter, and writes back the response line per §6's grammar.
// This runs far below TickHz on the regular Go scheduler, not the ISR.
func runHostLoop(adapter *command.Adapter) {
	var line []byte
	for {
		if USBAvailable() > 0 {
			b, err := USBRead()
			if err != nil {
				continue
			}
			if b == '\n' {
				if req, ok := hostproto.Tokenize(string(line)); ok {
					resp := adapter.Dispatch(req)
					_, _ = USBWriteBytes([]byte(resp + "\r\n"))
				}
				line = line[:0]
				continue
			}
			line = append(line, b)
			continue
		}
		time.Sleep(100 * time.Microsecond)
	}
}
