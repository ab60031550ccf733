package main

import "github.com/amken3d/ptzrig/core"

// simSPI is a desktop stand-in for the ZOOM axis's TMC5240 SPI link. With
// no physical driver attached, every StallGuard read returns a result well
// above the configured threshold so ZOOM homing resolves by its MaxTravel
// watchdog instead of a false stall trigger.
type simSPI struct {
	stallGuardResult uint32
}

func newSimSPI() *simSPI {
	return &simSPI{stallGuardResult: 500}
}

func (s *simSPI) ConfigureBus(config core.SPIConfig) (interface{}, error) {
	return s, nil
}

func (s *simSPI) Transfer(busHandle interface{}, txData []byte, rxData []byte) error {
	if len(rxData) >= 5 {
		rxData[1] = byte(s.stallGuardResult >> 24)
		rxData[2] = byte(s.stallGuardResult >> 16)
		rxData[3] = byte(s.stallGuardResult >> 8)
		rxData[4] = byte(s.stallGuardResult)
	}
	return nil
}
