// Package drivers holds the peripheral drivers. Each driver owns a
// private snapshot of its latest readings, mutated only by its own
// sampling loop, and exposes that snapshot as a Thing whose property
// accessors take a read lock. Numeric telemetry is quantized to the
// configured precision so noise below it does not churn delta reports.
//
// Drivers that apply temperature compensation receive a
// TemperatureSource at construction; drivers on the shared analog
// converter go through hal.SharedADC's bounded-wait acquisition and
// skip a cycle on timeout instead of blocking.
package drivers
