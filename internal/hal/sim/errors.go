package sim

import "errors"

var (
	// ErrNoCard is returned when mounting an empty SD card slot
	ErrNoCard = errors.New("no card inserted")

	// ErrBusTimeout is returned when the bus lock is not acquired in time
	ErrBusTimeout = errors.New("bus lock timeout")

	// ErrNoDevice is returned when nothing acknowledges an I2C address
	ErrNoDevice = errors.New("no device at address")

	// ErrNotStarted is returned by operations on a stopped device
	ErrNotStarted = errors.New("device not started")
)
