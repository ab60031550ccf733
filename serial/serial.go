// Package serial abstracts the line-oriented link that carries the host
// command protocol (§6), so cmd/ptzfw can be built and tested without a
// real port attached.
package serial

import "io"

// Port represents a serial connection to the host controller.
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	Device      string // e.g. "/dev/ttyACM0", "COM3"
	Baud        int
	ReadTimeout int // milliseconds; 0 = blocking
}

// DefaultConfig returns sane defaults for a USB-CDC link to the firmware.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
