package alert

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultQueueSize is the dispatcher's notification buffer depth.
const defaultQueueSize = 32

// Logger defines the logging interface for the dispatcher.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Dispatcher queues notifications from driver loops and delivers them
// to its sinks from its own goroutine, so a slow sink never stalls a
// driver. When the queue is full new notifications are dropped and
// counted, not blocked on.
//
// Thread Safety:
//   - Notify is safe for concurrent use from any goroutine.
//   - Run must be called exactly once.
type Dispatcher struct {
	queue   chan Notification
	dropped atomic.Uint64

	mu     sync.RWMutex
	sinks  []Sink
	logger Logger
}

// NewDispatcher creates a dispatcher delivering to the given sinks.
// A buffer of zero or less selects the default queue depth.
func NewDispatcher(buffer int, sinks ...Sink) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultQueueSize
	}
	return &Dispatcher{
		queue:  make(chan Notification, buffer),
		sinks:  sinks,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = logger
}

// AddSink appends a delivery target. Call before Run.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Notify enqueues a notification without blocking. A full queue drops
// the notification.
func (d *Dispatcher) Notify(n Notification) {
	select {
	case d.queue <- n:
	default:
		d.dropped.Add(1)
		d.getLogger().Warn("notification dropped, queue full",
			"severity", n.Severity,
			"message", n.Message,
		)
	}
}

// Dropped returns how many notifications were discarded on a full queue.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Run delivers queued notifications until the context is cancelled.
// Remaining queued notifications are flushed before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.deliver(n)
		case <-ctx.Done():
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n Notification) {
	d.mu.RLock()
	sinks := d.sinks
	d.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Deliver(n); err != nil {
			d.getLogger().Error("notification delivery failed",
				"severity", n.Severity,
				"error", err,
			)
		}
	}
}

func (d *Dispatcher) getLogger() Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.logger
}
