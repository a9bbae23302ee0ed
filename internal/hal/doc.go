// Package hal is the hardware boundary: small interfaces for the
// analog converter and the temperature probe, averaging and millivolt
// helpers, bounded-wait sharing of one converter unit between drivers,
// and settable simulators for tests and hosted runs.
package hal
