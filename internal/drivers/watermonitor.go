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

// WaterMonitor is the combined water-quality unit: TDS and pH probes
// on two channels of the shared analog converter. The TDS path applies
// temperature compensation and the polynomial probe characteristic;
// conductivity above the configured threshold raises a notification.
type WaterMonitor struct {
	cfg      config.WaterMonitorConfig
	adc      *hal.SharedADC
	vref     int
	temps    TemperatureSource
	notifier alert.Notifier
	logger   Logger

	mu           sync.RWMutex
	tds          float64
	conductivity float64
	ph           float64

	thing *thing.Thing
}

// NewWaterMonitor builds the driver and its Thing.
func NewWaterMonitor(cfg config.WaterMonitorConfig, adc *hal.SharedADC, vref int, temps TemperatureSource, notifier alert.Notifier) (*WaterMonitor, error) {
	m := &WaterMonitor{
		cfg:      cfg,
		adc:      adc,
		vref:     vref,
		temps:    temps,
		notifier: notifier,
		logger:   noopLogger{},
		ph:       7.0,
	}

	t := thing.New("WaterMonitor", "combined water quality sensor")
	if err := t.AddFloatProperty("conductivity", "current conductivity in uS/cm", m.Conductivity); err != nil {
		return nil, err
	}
	if err := t.AddFloatProperty("tds", "current TDS in ppm", m.Tds); err != nil {
		return nil, err
	}
	if err := t.AddFloatProperty("ph", "current pH value (0-14)", m.Ph); err != nil {
		return nil, err
	}

	err := t.AddMethod(thing.Method{
		Name:        "RefreshTds",
		Description: "re-read the TDS channel now",
		Action: func(ctx context.Context, args thing.Params) error {
			return m.refreshTds(ctx)
		},
	})
	if err != nil {
		return nil, err
	}
	err = t.AddMethod(thing.Method{
		Name:        "RefreshPh",
		Description: "re-read the pH channel now",
		Action: func(ctx context.Context, args thing.Params) error {
			return m.refreshPh(ctx)
		},
	})
	if err != nil {
		return nil, err
	}

	m.thing = t
	return m, nil
}

// SetLogger sets the logger for the driver.
func (m *WaterMonitor) SetLogger(logger Logger) { m.logger = logger }

// Thing returns the driver's capability surface.
func (m *WaterMonitor) Thing() *thing.Thing { return m.thing }

// Tds returns the latest TDS reading in ppm.
func (m *WaterMonitor) Tds() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tds
}

// Conductivity returns the latest conductivity in µS/cm.
func (m *WaterMonitor) Conductivity() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conductivity
}

// Ph returns the latest pH reading.
func (m *WaterMonitor) Ph() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ph
}

// readVolts samples one channel and converts to volts. ok is false on
// a lock timeout, which is retried next cycle rather than failed.
func (m *WaterMonitor) readVolts(ctx context.Context, channel int) (volts float64, ok bool, err error) {
	raw, err := m.adc.SampleAveraged(ctx, channel, m.cfg.Samples)
	if errors.Is(err, hal.ErrLockTimeout) {
		m.logger.Warn("shared adc busy, reading skipped", "channel", channel, "error", err)
		return voltageSentinel, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return hal.Millivolts(int(raw), m.vref) / 1000.0, true, nil
}

func (m *WaterMonitor) refreshTds(ctx context.Context) error {
	volts, ok, err := m.readVolts(ctx, m.cfg.TdsChannel)
	if err != nil {
		return fmt.Errorf("tds read: %w", err)
	}
	if !ok {
		return nil
	}

	temp := m.temps.Temperature()
	coef := 1.0 + 0.02*(temp-25.0)
	v := volts / coef
	tds := (133.42*v*v*v - 255.86*v*v + 857.39*v) * 0.5
	conductivity := m.cfg.KFactor * tds

	tds = quantize(tds, m.cfg.DebounceDecimals)
	conductivity = quantize(conductivity, m.cfg.DebounceDecimals)

	m.mu.Lock()
	m.tds = tds
	m.conductivity = conductivity
	m.mu.Unlock()

	m.logger.Debug("water monitor tds updated",
		"tds_ppm", tds,
		"conductivity_us_cm", conductivity,
		"voltage_v", volts,
		"celsius", temp,
	)

	if conductivity > m.cfg.ConductivityAlert {
		m.notifier.Notify(alert.Notification{
			Severity: alert.SeverityWarning,
			Message:  fmt.Sprintf("abnormal conductivity detected: %.2f uS/cm, check the tank", conductivity),
			Mood:     alert.MoodSad,
			Sound:    alert.SoundSuccess,
		})
	}
	return nil
}

func (m *WaterMonitor) refreshPh(ctx context.Context) error {
	volts, ok, err := m.readVolts(ctx, m.cfg.PhChannel)
	if err != nil {
		return fmt.Errorf("ph read: %w", err)
	}
	if !ok {
		return nil
	}

	temp := m.temps.Temperature()
	rawPh := m.cfg.Slope*volts + m.cfg.Intercept
	ph := quantize(rawPh+(25.0-temp)*phCompensationPerDegree, m.cfg.DebounceDecimals)

	m.mu.Lock()
	m.ph = ph
	m.mu.Unlock()

	m.logger.Debug("water monitor ph updated", "ph", ph, "voltage_v", volts, "celsius", temp)
	return nil
}

// Run samples both channels on the configured interval until the
// context is cancelled.
func (m *WaterMonitor) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	refresh := func() {
		if err := m.refreshTds(ctx); err != nil {
			m.logger.Warn("water monitor tds refresh failed", "error", err)
		}
		if err := m.refreshPh(ctx); err != nil {
			m.logger.Warn("water monitor ph refresh failed", "error", err)
		}
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
