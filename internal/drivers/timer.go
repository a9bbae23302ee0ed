package drivers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blueharbor/aquasense-core/internal/alert"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/config"
	"github.com/blueharbor/aquasense-core/internal/thing"
)

// timeLayout formats timer end times for the curTimer property and
// notifications.
const timeLayout = "2006-01-02 15:04:05"

// idleTimerState is reported while no countdown is active.
const idleTimerState = "no active timer"

// Timer is a single-slot countdown. addTimer arms it; the tick loop
// notifies completion and clears it.
type Timer struct {
	cfg      config.TimerConfig
	notifier alert.Notifier
	logger   Logger

	// now is replaceable in tests.
	now func() time.Time

	mu      sync.RWMutex
	active  bool
	endTime time.Time

	thing *thing.Thing
}

// NewTimer builds the driver and its Thing.
func NewTimer(cfg config.TimerConfig, notifier alert.Notifier) (*Timer, error) {
	d := &Timer{
		cfg:      cfg,
		notifier: notifier,
		logger:   noopLogger{},
		now:      time.Now,
	}

	t := thing.New("Timer", "countdown timer")
	if err := t.AddStringProperty("curTimer", "current timer state", d.CurTimer); err != nil {
		return nil, err
	}

	err := t.AddMethod(thing.Method{
		Name:        "addTimer",
		Description: "arm a countdown",
		Parameters: []thing.Parameter{
			{Name: "time_range", Description: fmt.Sprintf("integer between 0 and %d", cfg.MaxSeconds), Type: thing.TypeNumber, Required: true},
		},
		Action: func(ctx context.Context, args thing.Params) error {
			seconds, err := args["time_range"].Number()
			if err != nil {
				return err
			}
			return d.addTimer(seconds)
		},
	})
	if err != nil {
		return nil, err
	}

	d.thing = t
	return d, nil
}

// SetLogger sets the logger for the driver.
func (d *Timer) SetLogger(logger Logger) { d.logger = logger }

// Thing returns the driver's capability surface.
func (d *Timer) Thing() *thing.Thing { return d.thing }

// CurTimer returns the formatted end time of the active countdown, or
// the idle message.
func (d *Timer) CurTimer() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.active {
		return idleTimerState
	}
	return d.endTime.Format(timeLayout)
}

func (d *Timer) addTimer(seconds int64) error {
	if seconds < 0 || seconds > int64(d.cfg.MaxSeconds) {
		return fmt.Errorf("time_range must be between 0 and %d seconds, got %d", d.cfg.MaxSeconds, seconds)
	}

	end := d.now().Add(time.Duration(seconds) * time.Second)

	d.mu.Lock()
	d.endTime = end
	d.active = true
	d.mu.Unlock()

	d.logger.Info("timer armed", "seconds", seconds, "end", end.Format(timeLayout))
	d.notifier.Notify(alert.Notification{
		Severity: alert.SeverityInfo,
		Message:  "timer set: " + end.Format(timeLayout),
		Mood:     alert.MoodHappy,
		Sound:    alert.SoundSuccess,
	})
	return nil
}

// tick fires the completion notification when the countdown has elapsed.
func (d *Timer) tick() {
	d.mu.Lock()
	fire := d.active && !d.endTime.After(d.now())
	if fire {
		d.active = false
	}
	d.mu.Unlock()

	if fire {
		d.notifier.Notify(alert.Notification{
			Severity: alert.SeverityInfo,
			Message:  "timer finished",
			Mood:     alert.MoodHappy,
			Sound:    alert.SoundSuccess,
		})
	}
}

// Run ticks on the configured interval until the context is cancelled.
func (d *Timer) Run(ctx context.Context) {
	interval := time.Duration(d.cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick()
		}
	}
}
