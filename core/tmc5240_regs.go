package core

// TMC5240 register subset used for sensorless stall detection.
// Based on the TMC5240 datasheet Rev. 1.09 / 2021-06-02.

const (
	TMC5240_GCONF      = 0x00 // Global configuration flags
	TMC5240_GSTAT      = 0x01 // Global status flags
	TMC5240_DRV_STATUS = 0x6F // Driver status flags and current level read back
	TMC5240_SG4_THRS   = 0x74 // StallGuard4 threshold
	TMC5240_SG4_RESULT = 0x75 // StallGuard4 result (read only)
)

// GCONF bits relevant to stall reporting.
const (
	TMC5240_GCONF_DIAG0_STALL = 1 << 7 // Enable DIAG0 active on stall
	TMC5240_GCONF_DIAG1_STALL = 1 << 8 // Enable DIAG1 active on stall
)

// DRV_STATUS bits relevant to stall reporting.
const (
	TMC5240_DRV_STATUS_SG_RESULT  = 0x3FF   // StallGuard result mask (bits 0-9)
	TMC5240_DRV_STATUS_STALLGUARD = 1 << 24 // StallGuard status
	TMC5240_DRV_STATUS_OT         = 1 << 25 // Overtemperature flag
	TMC5240_DRV_STATUS_OTPW       = 1 << 26 // Overtemperature pre-warning
)

// SPI access mode bit: set for register writes, clear for reads.
const (
	TMC5240_WRITE_BIT = 0x80
	TMC5240_READ_BIT  = 0x00
)
