package core

// StallReader performs single-register SPI reads against a TMC5240-style
// driver, asserting and deasserting chip-select around the transfer the
// same way the driver's chip-select-managed transfer always has.
type StallReader struct {
	Pin          GPIOPin // chip-select pin
	ActiveHigh   bool    // CS polarity; default is active low
	BusHandle    interface{}
}

// NewStallReader configures the CS pin as an output, deasserted, and binds
// the reader to a bus handle obtained from SPIDriver.ConfigureBus.
func NewStallReader(pin GPIOPin, activeHigh bool, busHandle interface{}) (*StallReader, error) {
	if err := MustGPIO().ConfigureOutput(pin); err != nil {
		return nil, err
	}
	r := &StallReader{Pin: pin, ActiveHigh: activeHigh, BusHandle: busHandle}
	if err := MustGPIO().SetPin(pin, r.csInactiveLevel()); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *StallReader) csActiveLevel() bool {
	return r.ActiveHigh
}

func (r *StallReader) csInactiveLevel() bool {
	return !r.ActiveHigh
}

// transfer asserts CS, performs the SPI transfer, and deasserts CS
// regardless of transfer outcome.
func (r *StallReader) transfer(tx, rx []byte) error {
	if err := MustGPIO().SetPin(r.Pin, r.csActiveLevel()); err != nil {
		return err
	}
	err := MustSPI().Transfer(r.BusHandle, tx, rx)
	if setErr := MustGPIO().SetPin(r.Pin, r.csInactiveLevel()); setErr != nil && err == nil {
		err = setErr
	}
	return err
}

// ReadRegister performs a standard TMC5xxx 40-bit register read: a first
// transfer addresses the register, a second clocks out its value (the
// chip latches the addressed register's contents for the following
// transfer).
func (r *StallReader) ReadRegister(addr byte) (uint32, error) {
	tx := []byte{addr | TMC5240_READ_BIT, 0, 0, 0, 0}
	rx := make([]byte, len(tx))
	if err := r.transfer(tx, rx); err != nil {
		return 0, err
	}
	if err := r.transfer(tx, rx); err != nil {
		return 0, err
	}
	return uint32(rx[1])<<24 | uint32(rx[2])<<16 | uint32(rx[3])<<8 | uint32(rx[4]), nil
}

// ReadStallGuardResult reads DRV_STATUS and returns the SG_RESULT field:
// lower values mean the motor is closer to stalling.
func (r *StallReader) ReadStallGuardResult() (uint32, error) {
	status, err := r.ReadRegister(TMC5240_DRV_STATUS)
	if err != nil {
		return 0, err
	}
	return status & TMC5240_DRV_STATUS_SG_RESULT, nil
}
