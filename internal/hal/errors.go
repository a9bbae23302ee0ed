package hal

import "errors"

// Sentinel errors for hardware access.
var (
	// ErrLockTimeout indicates bounded-wait acquisition of a shared
	// converter failed. Callers surface a sentinel reading instead of
	// blocking.
	ErrLockTimeout = errors.New("hal: shared adc lock timeout")

	// ErrHardware indicates a peripheral operation could not complete.
	// Hardware faults are recoverable per call; they must never take
	// down the process.
	ErrHardware = errors.New("hal: hardware failure")
)
