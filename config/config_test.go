package config

import "testing"

func TestLoadAppliesDefaultsForUnsetFields(t *testing.T) {
	data := []byte(`
[pan]
step_pin = 0
dir_pin = 1

[tilt]
step_pin = 2
dir_pin = 3

[zoom]
step_pin = 4
dir_pin = 5
sensorless = true
`)
	cfg, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pan.MaxVelocity == 0 {
		t.Error("expected default MaxVelocity to be applied")
	}
	if cfg.SerialBaud != 115200 {
		t.Errorf("SerialBaud = %d, want default 115200", cfg.SerialBaud)
	}
	if !cfg.Zoom.Sensorless {
		t.Error("expected zoom.sensorless to round-trip from TOML")
	}
	if cfg.Zoom.MinTravel == 0 {
		t.Error("expected a default MinTravel for the sensorless axis (start-up transient guard)")
	}
	if cfg.Pan.MinTravel != 0 {
		t.Error("expected no forced MinTravel default for an endstop axis")
	}
}

func TestDefaultMachineConfigIsSelfConsistent(t *testing.T) {
	cfg := DefaultMachineConfig()
	if cfg.Pan.MinPosition >= cfg.Pan.MaxPosition {
		t.Error("pan soft limits out of order")
	}
	if cfg.ZoomSPI.RateHz == 0 {
		t.Error("expected zoom SPI default rate applied")
	}
}
