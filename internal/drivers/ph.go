package drivers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blueharbor/aquasense-core/internal/alert"
	"github.com/blueharbor/aquasense-core/internal/hal"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/config"
	"github.com/blueharbor/aquasense-core/internal/thing"
)

// voltageSentinel is stored when the shared converter could not be
// acquired within the bounded wait.
const voltageSentinel = -1.0

// phCompensationPerDegree is the temperature compensation coefficient
// in pH units per degree Celsius away from 25 °C.
const phCompensationPerDegree = 0.03

// PhSensor reads water acidity from a channel on the shared analog
// converter. The probe voltage maps linearly to pH and is temperature
// compensated against the injected temperature source. Out-of-range
// readings raise a user notification.
type PhSensor struct {
	cfg      config.PhConfig
	adc      *hal.SharedADC
	vref     int
	temps    TemperatureSource
	notifier alert.Notifier
	logger   Logger

	mu      sync.RWMutex
	ph      float64
	voltage float64

	thing *thing.Thing
}

// NewPhSensor builds the driver and its Thing. The temperature source
// is the dependency injected at construction; the driver never looks a
// peer up by name.
func NewPhSensor(cfg config.PhConfig, adc *hal.SharedADC, vref int, temps TemperatureSource, notifier alert.Notifier) (*PhSensor, error) {
	s := &PhSensor{
		cfg:      cfg,
		adc:      adc,
		vref:     vref,
		temps:    temps,
		notifier: notifier,
		logger:   noopLogger{},
		ph:       7.0,
	}

	t := thing.New("PhSensor", "water pH sensor")
	if err := t.AddFloatProperty("ph", "current pH value (0-14)", s.Ph); err != nil {
		return nil, err
	}
	err := t.AddMethod(thing.Method{
		Name:        "Refresh",
		Description: "re-read the pH sensor now",
		Action: func(ctx context.Context, args thing.Params) error {
			return s.refresh(ctx)
		},
	})
	if err != nil {
		return nil, err
	}

	s.thing = t
	return s, nil
}

// SetLogger sets the logger for the driver.
func (s *PhSensor) SetLogger(logger Logger) { s.logger = logger }

// Thing returns the driver's capability surface.
func (s *PhSensor) Thing() *thing.Thing { return s.thing }

// Ph returns the latest pH reading.
func (s *PhSensor) Ph() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ph
}

// Voltage returns the latest probe voltage in volts, or the -1.0
// sentinel when the last acquisition of the shared converter timed out.
func (s *PhSensor) Voltage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voltage
}

// refresh samples the shared converter and recomputes the snapshot. A
// lock timeout stores the sentinel voltage and keeps the previous pH;
// the next cycle retries.
func (s *PhSensor) refresh(ctx context.Context) error {
	raw, err := s.adc.SampleAveraged(ctx, s.cfg.Channel, s.cfg.Samples)
	if errors.Is(err, hal.ErrLockTimeout) {
		s.mu.Lock()
		s.voltage = voltageSentinel
		s.mu.Unlock()
		s.logger.Warn("shared adc busy, ph reading skipped", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("ph read: %w", err)
	}

	volts := hal.Millivolts(int(raw), s.vref) / 1000.0
	temp := s.temps.Temperature()
	rawPh := s.cfg.Slope*volts + s.cfg.Intercept
	ph := quantize(rawPh+(25.0-temp)*phCompensationPerDegree, s.cfg.DebounceDecimals)

	s.mu.Lock()
	s.voltage = volts
	s.ph = ph
	s.mu.Unlock()

	s.logger.Debug("ph updated", "ph", ph, "voltage_v", volts, "celsius", temp)

	if ph < s.cfg.AlertLow || ph > s.cfg.AlertHigh {
		s.notifier.Notify(alert.Notification{
			Severity: alert.SeverityWarning,
			Message:  fmt.Sprintf("abnormal pH detected: %.2f", ph),
			Mood:     alert.MoodSad,
			Sound:    alert.SoundSuccess,
		})
	}
	return nil
}

// Run samples on the configured interval until the context is cancelled.
func (s *PhSensor) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("ph refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn("ph refresh failed", "error", err)
			}
		}
	}
}
