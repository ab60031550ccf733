package controller

import "errors"

// Sentinel error kinds, all errors.Is-compatible via wrapping with %w. The
// command adapter maps each back to its wire-level ERR:reason token.
var (
	ErrArgument     = errors.New("invalid argument")
	ErrState        = errors.New("operation not valid in current controller state")
	ErrLimit        = errors.New("soft limit reached")
	ErrHomingFailed = errors.New("homing failed")
	ErrQueueOverrun = errors.New("segment queue overrun")
	ErrDriverFault  = errors.New("driver fault")
)
