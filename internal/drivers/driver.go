package drivers

import (
	"context"
	"math"

	"github.com/blueharbor/aquasense-core/internal/thing"
)

// Driver is one peripheral driver: it owns a background sampling loop
// and exposes its capability surface as a Thing.
type Driver interface {
	Thing() *thing.Thing
	Run(ctx context.Context)
}

// TemperatureSource supplies the latest water temperature to drivers
// that apply temperature compensation. The reference is injected at
// construction, so dependents never look a peer up by name.
type TemperatureSource interface {
	Temperature() float64
}

// Logger defines the logging interface for drivers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// quantize rounds v to the given number of decimals. Telemetry is
// quantized before storage so measurement noise below the precision
// does not churn the delta report.
func quantize(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
