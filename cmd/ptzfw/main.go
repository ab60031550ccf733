// Command ptzfw is the native desktop build of the PTZ rig firmware: the
// same C1-C6 components as the targets/rp2040 build, wired to a simulated
// GPIO/SPI driver and a real (or loopback) serial link instead of hardware
// register access. Grounded on the teacher's cmd/gopper-host-sim shape:
// one assembly function, a config file, and a blocking host loop.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/amken3d/ptzrig/command"
	"github.com/amken3d/ptzrig/config"
	"github.com/amken3d/ptzrig/controller"
	"github.com/amken3d/ptzrig/core"
	"github.com/amken3d/ptzrig/homing"
	"github.com/amken3d/ptzrig/hostproto"
	"github.com/amken3d/ptzrig/planner"
	"github.com/amken3d/ptzrig/preset"
	"github.com/amken3d/ptzrig/serial"
)

// controllerCadence mirrors targets/rp2040's ~100Hz controller task rate.
const controllerCadence = 10 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "path to rig TOML config (defaults to the built-in template)")
	device := flag.String("device", "", "serial device, e.g. /dev/ttyACM0 (omit to run against an in-memory loopback)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("ptzfw: %v", err)
	}

	core.SetDebugWriter(func(s string) { log.Print(s) })

	gpioDriver := newSimGPIO()
	core.SetGPIODriver(gpioDriver)
	spiDriver := newSimSPI()
	core.SetSPIDriver(spiDriver)

	pan := buildAxis("pan", cfg.Pan)
	tilt := buildAxis("tilt", cfg.Tilt)
	zoom := buildAxis("zoom", cfg.Zoom)

	for _, a := range [...]*core.Axis{pan, tilt, zoom} {
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

	presets, err := preset.NewFileStore(cfg.PresetPath)
	if err != nil {
		log.Fatalf("ptzfw: %v", err)
	}
	scale := [3]float64{cfg.Pan.MicrostepScale, cfg.Tilt.MicrostepScale, cfg.Zoom.MicrostepScale}
	adapter := command.New(ctrl, presets, scale)

	port, err := openPort(cfg, *device)
	if err != nil {
		log.Fatalf("ptzfw: %v", err)
	}
	defer port.Close()

	// Unsolicited status reports mirror targets/rp2040's periodic STATUS
	// push, grounded on the teacher's TriggerSync.ReportTimer pattern; see
	// core.NewStatusReporter. The write mutex keeps the push from
	// interleaving with a command response mid-line.
	var writeMu sync.Mutex
	writeLine := func(resp string) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := port.Write([]byte(resp + "\r\n")); err != nil {
			log.Printf("ptzfw: serial write: %v", err)
		}
	}
	core.NewStatusReporter(statusReportTicks, func() {
		writeLine(adapter.Dispatch(hostproto.Request{Name: "STATUS"}))
	})

	core.TimerInit()
	go pumpTick(exec)
	go pumpController(ctrl)
	go pumpTimers()

	runHostLoop(adapter, port, writeLine)
}

// statusReportTicks is one second of core.TimerFreq ticks, the cadence
// unsolicited STATUS reports are pushed at.
const statusReportTicks = core.TimerFreq

// pumpTimers advances core's software clock and drains its timer queue
// (core.ScheduleTimer/ProcessTimers), standing in for the real hardware
// timer targets/rp2040 drives the same scheduler from.
func pumpTimers() {
	const tickInterval = 10 * time.Millisecond
	ticksPerInterval := core.TimerFromUS(uint32(tickInterval.Microseconds()))
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for range ticker.C {
		core.SetTime(core.GetTime() + ticksPerInterval)
		core.ProcessTimers()
	}
}

// loadConfig reads path if given, otherwise falls back to the built-in
// default template (a fresh rig with no config file yet).
func loadConfig(path string) (*config.MachineConfig, error) {
	if path == "" {
		return config.DefaultMachineConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return config.Load(data)
}

// openPort opens a real serial link if device (flag or config) names one,
// or an in-memory MockPort for local development/testing without hardware.
func openPort(cfg *config.MachineConfig, deviceFlag string) (serial.Port, error) {
	device := deviceFlag
	if device == "" {
		device = cfg.SerialDevice
	}
	if device == "" {
		log.Printf("ptzfw: no serial device configured, running against an in-memory loopback")
		return serial.NewMockPort(), nil
	}
	sc := serial.DefaultConfig(device)
	sc.Baud = cfg.SerialBaud
	return serial.Open(sc)
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

// buildZoomStallSource mirrors targets/rp2040's wiring, against the
// simulated SPI bus instead of a real TMC5240.
func buildZoomStallSource(cfg *config.MachineConfig, spiDriver *simSPI) homing.StallDetector {
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

// pumpTick drives the executor at core.TickHz from a time.Ticker, standing
// in for the hardware timer ISR the rp2040 build uses instead.
func pumpTick(exec *core.StepExecutor) {
	ticker := time.NewTicker(time.Second / core.TickHz)
	defer ticker.Stop()
	for range ticker.C {
		exec.Tick()
	}
}

func pumpController(ctrl *controller.Controller) {
	ticker := time.NewTicker(controllerCadence)
	defer ticker.Stop()
	for range ticker.C {
		ctrl.Pump()
	}
}

// runHostLoop reads newline-delimited commands from port, dispatches each
// through adapter, and writes the response back per §6's grammar.
func runHostLoop(adapter *command.Adapter, port serial.Port, writeLine func(string)) {
	buf := make([]byte, 1)
	var line []byte
	for {
		n, err := port.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Loopback/mock port with nothing buffered yet; a real
				// serial link never returns EOF while open.
				time.Sleep(10 * time.Millisecond)
				continue
			}
			log.Printf("ptzfw: serial read: %v", err)
			return
		}
		if n == 0 {
			continue
		}
		b := buf[0]
		if b == '\n' {
			if req, ok := hostproto.Tokenize(string(line)); ok {
				writeLine(adapter.Dispatch(req))
			}
			line = line[:0]
			continue
		}
		line = append(line, b)
	}
}
