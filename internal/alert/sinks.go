package alert

import "encoding/json"

// SinkLogger is the logging interface the log sink writes to.
type SinkLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogSink writes every notification to the structured log at a level
// matching its severity.
type LogSink struct {
	logger SinkLogger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger SinkLogger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(n Notification) error {
	args := []any{"mood", n.Mood, "sound", n.Sound}
	switch n.Severity {
	case SeverityError:
		s.logger.Error(n.Message, args...)
	case SeverityWarning:
		s.logger.Warn(n.Message, args...)
	default:
		s.logger.Info(n.Message, args...)
	}
	return nil
}

// Publisher is the broker surface the MQTT sink needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// MQTTSink publishes notifications to the node's notify topic. While
// the broker is unreachable notifications are skipped silently; the
// log sink still records them.
type MQTTSink struct {
	publisher Publisher
	topic     string
	qos       byte
}

// NewMQTTSink creates a sink publishing JSON notifications to topic.
func NewMQTTSink(publisher Publisher, topic string, qos byte) *MQTTSink {
	return &MQTTSink{publisher: publisher, topic: topic, qos: qos}
}

// Deliver implements Sink.
func (s *MQTTSink) Deliver(n Notification) error {
	if !s.publisher.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.publisher.Publish(s.topic, payload, s.qos, false)
}

// AlertWriter is the telemetry store surface the export sink needs.
type AlertWriter interface {
	WriteAlert(nodeID, severity, message string) error
}

// ExportSink records notifications in the telemetry store for
// historical analysis.
type ExportSink struct {
	writer AlertWriter
	nodeID string
}

// NewExportSink creates a sink writing notifications under nodeID.
func NewExportSink(writer AlertWriter, nodeID string) *ExportSink {
	return &ExportSink{writer: writer, nodeID: nodeID}
}

// Deliver implements Sink.
func (s *ExportSink) Deliver(n Notification) error {
	return s.writer.WriteAlert(s.nodeID, string(n.Severity), n.Message)
}
