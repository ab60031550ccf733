//go:build rp2040 || rp2350

package main

import "machine"

// InitUSB brings up the USB-CDC link the host serial protocol (spec §6)
// rides on. TinyGo enumerates RP2040/RP2350 as USB-CDC automatically;
// machine.Serial is that CDC endpoint, not a UART, despite the name.
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes buffered for reading.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte from the host link.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes a response line back to the host.
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
