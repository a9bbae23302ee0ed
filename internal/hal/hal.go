package hal

import (
	"context"
	"fmt"
)

// FullScale is the maximum raw count of the 12-bit converter.
const FullScale = 4095

// ADC exposes one analog-to-digital converter unit. Sample reads one
// raw conversion (0..FullScale) from the given channel.
type ADC interface {
	Sample(ctx context.Context, channel int) (int, error)
}

// TemperatureProbe exposes a one-wire temperature sensor session. The
// bit-level protocol lives behind this boundary.
type TemperatureProbe interface {
	ReadTemperature(ctx context.Context) (float64, error)
}

// Millivolts converts a raw count to millivolts against the reference
// voltage.
func Millivolts(raw int, vrefMillivolts int) float64 {
	return float64(raw) * float64(vrefMillivolts) / FullScale
}

// SampleAveraged reads the channel count times and returns the mean
// raw value. A single failed conversion fails the whole read.
func SampleAveraged(ctx context.Context, adc ADC, channel, count int) (float64, error) {
	if count <= 0 {
		return 0, fmt.Errorf("hal: sample count must be positive, got %d", count)
	}

	var sum int
	for i := 0; i < count; i++ {
		raw, err := adc.Sample(ctx, channel)
		if err != nil {
			return 0, fmt.Errorf("sampling channel %d: %w", channel, err)
		}
		sum += raw
	}
	return float64(sum) / float64(count), nil
}
