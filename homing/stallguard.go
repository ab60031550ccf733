package homing

import "github.com/amken3d/ptzrig/core"

// EndstopSource is a digital mechanical endstop, used for PAN/TILT. It
// implements Source directly against the GPIO HAL.
type EndstopSource struct {
	Pin        core.GPIOPin
	ActiveHigh bool
}

func (e EndstopSource) Sample() (bool, error) {
	return core.MustGPIO().ReadPin(e.Pin) == e.ActiveHigh, nil
}

// StallDetector is ZOOM's sensorless datum source: a TMC5240 SG_RESULT
// read below Threshold counts as triggered, same as a digital stall pin
// reading active — both reduce to the same debounced Source interface per
// the "uniform debounced input" design.
type StallDetector struct {
	Reader    *core.StallReader
	Threshold uint32
}

func (s StallDetector) Sample() (bool, error) {
	if s.Reader == nil {
		// No driver link: never trip, so homing resolves through the
		// MaxTravel watchdog instead of a false trigger.
		return false, nil
	}
	sg, err := s.Reader.ReadStallGuardResult()
	if err != nil {
		return false, err
	}
	return sg < s.Threshold, nil
}
