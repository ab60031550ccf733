// Package config loads the PAN/TILT/ZOOM rig's build-time configuration
// (pin assignments, soft limits, homing speeds) from TOML, grounded on
// the teacher's LoadConfig/applyDefaults shape.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// AxisConfig describes one physical axis's pins, scale, limits, and
// homing behaviour.
type AxisConfig struct {
	StepPin uint32 `toml:"step_pin"`
	DirPin  uint32 `toml:"dir_pin"`

	HasEndstop bool   `toml:"has_endstop"`
	EndstopPin uint32 `toml:"endstop_pin"`
	Sensorless bool   `toml:"sensorless"` // ZOOM: SPI StallGuard instead of a digital endstop

	DirInverted bool `toml:"dir_inverted"`

	MicrostepScale float64 `toml:"microstep_scale"` // microsteps per unit (degrees or mm)
	MinPosition    float64 `toml:"min_position"`
	MaxPosition    float64 `toml:"max_position"`

	MaxVelocity float64 `toml:"max_velocity"` // units/sec
	MaxAccel    float64 `toml:"max_accel"`    // units/sec^2

	HomeFastVelocity float64 `toml:"home_fast_velocity"`
	HomeSlowVelocity float64 `toml:"home_slow_velocity"`
	BackoffDistance  float64 `toml:"backoff_distance"`
	MaxTravel        float64 `toml:"max_travel"`     // homing watchdog distance
	MinTravel        float64 `toml:"home_min_travel"` // ignore trigger before this much travel (start-up transient guard)
}

// SPIConfig describes the bus ZOOM's sensorless stall reader runs on.
type SPIConfig struct {
	BusID      uint8  `toml:"bus_id"`
	Mode       uint8  `toml:"mode"`
	RateHz     uint32 `toml:"rate_hz"`
	CSPin      uint32 `toml:"cs_pin"`
	ActiveHigh bool   `toml:"cs_active_high"`
	StallThreshold uint32 `toml:"stall_threshold"`
}

// MachineConfig is the top-level rig configuration.
type MachineConfig struct {
	Pan  AxisConfig `toml:"pan"`
	Tilt AxisConfig `toml:"tilt"`
	Zoom AxisConfig `toml:"zoom"`

	ZoomSPI SPIConfig `toml:"zoom_spi"`

	SerialDevice string `toml:"serial_device"`
	SerialBaud   int    `toml:"serial_baud"`

	PresetPath string `toml:"preset_path"`
}

// Load parses TOML configuration data and applies defaults for anything
// left unset.
func Load(data []byte) (*MachineConfig, error) {
	var cfg MachineConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *MachineConfig) {
	applyAxisDefaults(&cfg.Pan)
	applyAxisDefaults(&cfg.Tilt)
	applyAxisDefaults(&cfg.Zoom)

	if cfg.SerialBaud == 0 {
		cfg.SerialBaud = 115200
	}
	if cfg.PresetPath == "" {
		cfg.PresetPath = "presets.toml"
	}
	if cfg.ZoomSPI.RateHz == 0 {
		cfg.ZoomSPI.RateHz = 1_000_000
	}
	if cfg.ZoomSPI.StallThreshold == 0 {
		cfg.ZoomSPI.StallThreshold = 100
	}
}

func applyAxisDefaults(a *AxisConfig) {
	if a.MicrostepScale == 0 {
		a.MicrostepScale = 80.0
	}
	if a.MaxVelocity == 0 {
		a.MaxVelocity = 2000.0
	}
	if a.MaxAccel == 0 {
		a.MaxAccel = 8000.0
	}
	if a.HomeFastVelocity == 0 {
		a.HomeFastVelocity = 500.0
	}
	if a.HomeSlowVelocity == 0 {
		a.HomeSlowVelocity = 80.0
	}
	if a.BackoffDistance == 0 {
		a.BackoffDistance = 2.0
	}
	if a.MaxTravel == 0 {
		a.MaxTravel = 10000.0
	}
	if a.Sensorless && a.MinTravel == 0 {
		a.MinTravel = 200.0
	}
}

// DefaultMachineConfig returns a complete configuration for a three-axis
// rig wired on a typical RP2040 pin layout, useful for tests and as a
// starting template.
func DefaultMachineConfig() *MachineConfig {
	cfg := &MachineConfig{
		Pan: AxisConfig{
			StepPin: 0, DirPin: 1, HasEndstop: true, EndstopPin: 10,
			MinPosition: -170, MaxPosition: 170,
		},
		Tilt: AxisConfig{
			StepPin: 2, DirPin: 3, HasEndstop: true, EndstopPin: 11,
			MinPosition: -45, MaxPosition: 90,
		},
		Zoom: AxisConfig{
			StepPin: 4, DirPin: 5, Sensorless: true,
			MinPosition: 0, MaxPosition: 100,
		},
		ZoomSPI: SPIConfig{BusID: 0, Mode: 3, CSPin: 6},
	}
	applyDefaults(cfg)
	return cfg
}
