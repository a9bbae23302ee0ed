package drivers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blueharbor/aquasense-core/internal/hal"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/config"
	"github.com/blueharbor/aquasense-core/internal/thing"
)

// startupDefaultCelsius is reported until the probe delivers its first
// reading, so compensation in dependent drivers has a sane input
// during the startup window.
const startupDefaultCelsius = 25.0

// TemperatureSensor reads the water temperature probe. It implements
// TemperatureSource for drivers that apply temperature compensation.
type TemperatureSensor struct {
	cfg    config.TemperatureConfig
	probe  hal.TemperatureProbe
	logger Logger

	mu         sync.RWMutex
	temp       float64
	hasReading bool

	thing *thing.Thing
}

// NewTemperatureSensor builds the driver and its Thing.
func NewTemperatureSensor(cfg config.TemperatureConfig, probe hal.TemperatureProbe) (*TemperatureSensor, error) {
	s := &TemperatureSensor{
		cfg:    cfg,
		probe:  probe,
		logger: noopLogger{},
	}

	t := thing.New("TemperatureSensor", "water temperature sensor")
	if err := t.AddFloatProperty("temperature", "current water temperature in degrees C", s.Temperature); err != nil {
		return nil, err
	}
	err := t.AddMethod(thing.Method{
		Name:        "Refresh",
		Description: "re-read the probe now",
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
func (s *TemperatureSensor) SetLogger(logger Logger) { s.logger = logger }

// Thing returns the driver's capability surface.
func (s *TemperatureSensor) Thing() *thing.Thing { return s.thing }

// Temperature returns the latest reading, or the startup default when
// the probe has not reported yet.
func (s *TemperatureSensor) Temperature() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasReading {
		return startupDefaultCelsius
	}
	return s.temp
}

func (s *TemperatureSensor) refresh(ctx context.Context) error {
	temp, err := s.probe.ReadTemperature(ctx)
	if err != nil {
		return fmt.Errorf("temperature read: %w", err)
	}

	s.mu.Lock()
	s.temp = quantize(temp, s.cfg.DebounceDecimals)
	s.hasReading = true
	s.mu.Unlock()

	s.logger.Debug("temperature updated", "celsius", temp)
	return nil
}

// Run samples on the configured interval until the context is cancelled.
func (s *TemperatureSensor) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("temperature refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn("temperature refresh failed", "error", err)
			}
		}
	}
}
