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

// TdsSensor reads total dissolved solids from one analog channel. The
// probe's output voltage maps to ppm through a single calibration
// coefficient, adjustable at runtime via SetterKFactor.
//
// Thread Safety:
//   - The sampling loop is the only writer; property accessors take a
//     read lock on the snapshot.
type TdsSensor struct {
	cfg    config.TdsConfig
	adc    hal.ADC
	vref   int
	logger Logger

	mu      sync.RWMutex
	voltage float64
	tds     float64
	kFactor float64

	thing *thing.Thing
}

// NewTdsSensor builds the driver and its Thing.
func NewTdsSensor(cfg config.TdsConfig, adc hal.ADC, vref int) (*TdsSensor, error) {
	s := &TdsSensor{
		cfg:     cfg,
		adc:     adc,
		vref:    vref,
		logger:  noopLogger{},
		kFactor: cfg.KFactor,
	}

	t := thing.New("TdsSensor", "water TDS sensor")
	if err := t.AddFloatProperty("tds", "current TDS in ppm", s.Tds); err != nil {
		return nil, err
	}
	if err := t.AddFloatProperty("voltage", "probe voltage in mV", s.Voltage); err != nil {
		return nil, err
	}
	if err := t.AddFloatProperty("k_factor", "current TDS coefficient", s.KFactor); err != nil {
		return nil, err
	}

	err := t.AddMethod(thing.Method{
		Name:        "SetterKFactor",
		Description: "set the TDS coefficient",
		Parameters: []thing.Parameter{
			{Name: "k_factor", Description: "decimal between 0.5 and 0.8", Type: thing.TypeFloat, Required: true},
		},
		Action: func(ctx context.Context, args thing.Params) error {
			k, err := args["k_factor"].Float()
			if err != nil {
				return err
			}
			s.mu.Lock()
			s.kFactor = k
			s.mu.Unlock()
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	err = t.AddMethod(thing.Method{
		Name:        "Refresh",
		Description: "re-read the sensor now",
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
func (s *TdsSensor) SetLogger(logger Logger) { s.logger = logger }

// Thing returns the driver's capability surface.
func (s *TdsSensor) Thing() *thing.Thing { return s.thing }

// Tds returns the latest TDS reading in ppm.
func (s *TdsSensor) Tds() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tds
}

// Voltage returns the latest averaged probe voltage in millivolts.
func (s *TdsSensor) Voltage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voltage
}

// KFactor returns the active calibration coefficient.
func (s *TdsSensor) KFactor() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kFactor
}

// refresh samples the channel and recomputes the snapshot. A hardware
// fault keeps the previous reading and is returned to the caller.
func (s *TdsSensor) refresh(ctx context.Context) error {
	raw, err := hal.SampleAveraged(ctx, s.adc, s.cfg.Channel, s.cfg.Samples)
	if err != nil {
		return fmt.Errorf("tds read: %w", err)
	}

	voltage := hal.Millivolts(int(raw), s.vref)

	s.mu.Lock()
	s.voltage = quantize(voltage, s.cfg.DebounceDecimals)
	s.tds = quantize(s.kFactor*voltage, s.cfg.DebounceDecimals)
	tds, k := s.tds, s.kFactor
	s.mu.Unlock()

	s.logger.Debug("tds updated", "tds_ppm", tds, "voltage_mv", voltage, "k_factor", k)
	return nil
}

// Run samples on the configured interval until the context is cancelled.
func (s *TdsSensor) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("tds refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Warn("tds refresh failed", "error", err)
			}
		}
	}
}
