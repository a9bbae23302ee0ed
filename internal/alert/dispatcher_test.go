package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingSink captures delivered notifications.
type recordingSink struct {
	mu    sync.Mutex
	got   []Notification
	fail  error
	seen  chan struct{}
	seenN int
}

func newRecordingSink(expect int) *recordingSink {
	return &recordingSink{seen: make(chan struct{}), seenN: expect}
}

func (s *recordingSink) Deliver(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	if len(s.got) == s.seenN {
		close(s.seen)
	}
	return s.fail
}

func (s *recordingSink) notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.got))
	copy(out, s.got)
	return out
}

func TestDispatcherDelivers(t *testing.T) {
	sink := newRecordingSink(2)
	d := NewDispatcher(8, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Notify(Notification{Severity: SeverityWarning, Message: "ph out of range", Mood: MoodSad, Sound: SoundAlarm})
	d.Notify(Notification{Severity: SeverityInfo, Message: "timer done", Mood: MoodHappy, Sound: SoundSuccess})

	select {
	case <-sink.seen:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	got := sink.notifications()
	if len(got) != 2 {
		t.Fatalf("delivered = %d, want 2", len(got))
	}
	if got[0].Mood != MoodSad || got[1].Sound != SoundSuccess {
		t.Errorf("unexpected order or content: %+v", got)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// No Run loop draining, so the queue fills.
	d := NewDispatcher(1)

	d.Notify(Notification{Message: "first"})
	d.Notify(Notification{Message: "second"})

	if got := d.Dropped(); got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestDispatcherFlushesOnShutdown(t *testing.T) {
	sink := newRecordingSink(1)
	d := NewDispatcher(8, sink)

	d.Notify(Notification{Message: "queued before run"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if len(sink.notifications()) != 1 {
		t.Error("queued notification was not flushed on shutdown")
	}
}

func TestDispatcherSurvivesSinkFailure(t *testing.T) {
	failing := newRecordingSink(2)
	failing.fail = errors.New("sink broken")
	healthy := newRecordingSink(2)
	d := NewDispatcher(8, failing, healthy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Notify(Notification{Message: "one"})
	d.Notify(Notification{Message: "two"})

	select {
	case <-healthy.seen:
	case <-time.After(time.Second):
		t.Fatal("healthy sink did not receive both notifications")
	}
}

// fakePublisher records published payloads.
type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	topics    []string
	payloads  [][]byte
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func TestMQTTSinkPublishesWhenConnected(t *testing.T) {
	pub := &fakePublisher{connected: true}
	sink := NewMQTTSink(pub, "aquasense/notify/node-1", 1)

	err := sink.Deliver(Notification{Severity: SeverityWarning, Message: "conductivity high", Mood: MoodSad, Sound: SoundAlarm})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(pub.topics) != 1 || pub.topics[0] != "aquasense/notify/node-1" {
		t.Errorf("topics = %v", pub.topics)
	}
}

func TestMQTTSinkSkipsWhenDisconnected(t *testing.T) {
	pub := &fakePublisher{connected: false}
	sink := NewMQTTSink(pub, "aquasense/notify/node-1", 1)

	if err := sink.Deliver(Notification{Message: "ignored"}); err != nil {
		t.Fatalf("Deliver while disconnected: %v", err)
	}
	if len(pub.topics) != 0 {
		t.Error("disconnected sink should not publish")
	}
}

// testLogger counts log calls per level.
type testLogger struct {
	info, warn, errs int
}

func (l *testLogger) Info(string, ...any)  { l.info++ }
func (l *testLogger) Warn(string, ...any)  { l.warn++ }
func (l *testLogger) Error(string, ...any) { l.errs++ }

func TestLogSinkLevels(t *testing.T) {
	logger := &testLogger{}
	sink := NewLogSink(logger)

	for _, sev := range []Severity{SeverityInfo, SeverityWarning, SeverityError} {
		if err := sink.Deliver(Notification{Severity: sev, Message: "m"}); err != nil {
			t.Fatalf("Deliver %s: %v", sev, err)
		}
	}

	if logger.info != 1 || logger.warn != 1 || logger.errs != 1 {
		t.Errorf("log calls = info %d warn %d error %d, want 1 each",
			logger.info, logger.warn, logger.errs)
	}
}

// fakeAlertWriter records exported alerts.
type fakeAlertWriter struct {
	nodes, severities, messages []string
}

func (w *fakeAlertWriter) WriteAlert(nodeID, severity, message string) error {
	w.nodes = append(w.nodes, nodeID)
	w.severities = append(w.severities, severity)
	w.messages = append(w.messages, message)
	return nil
}

func TestExportSinkWritesAlert(t *testing.T) {
	writer := &fakeAlertWriter{}
	sink := NewExportSink(writer, "node-1")

	n := Notification{
		Severity: SeverityWarning,
		Message:  "abnormal pH detected: 11.20",
		Mood:     MoodSad,
	}
	if err := sink.Deliver(n); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	if len(writer.messages) != 1 {
		t.Fatalf("writes = %d, want 1", len(writer.messages))
	}
	if writer.nodes[0] != "node-1" {
		t.Errorf("node = %q, want %q", writer.nodes[0], "node-1")
	}
	if writer.severities[0] != string(SeverityWarning) {
		t.Errorf("severity = %q, want %q", writer.severities[0], SeverityWarning)
	}
	if writer.messages[0] != n.Message {
		t.Errorf("message = %q, want %q", writer.messages[0], n.Message)
	}
}
