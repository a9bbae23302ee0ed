package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blueharbor/aquasense-core/internal/infrastructure/mqtt"
	"github.com/blueharbor/aquasense-core/internal/thing"
)

// defaultInvokeTimeout bounds one command's action execution. A hung
// action fails the command instead of wedging the command path.
const defaultInvokeTimeout = 10 * time.Second

// Broker is the slice of the MQTT client the gateway needs. The
// concrete client satisfies it; tests use a fake.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Exporter receives each published numeric reading for time-series
// storage. A nil exporter disables export.
type Exporter interface {
	WriteReading(nodeID, thing, property string, value float64) error
	WriteInvocation(nodeID, thing, method string, err error) error
}

// Logger defines the logging interface for the gateway.
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

// Gateway is the orchestrator uplink. It advertises the registry's
// capability descriptors, publishes delta state reports on a fixed
// interval, and dispatches commands arriving on the node's command
// topic, acknowledging each one.
type Gateway struct {
	registry *thing.Registry
	broker   Broker
	exporter Exporter
	topics   mqtt.Topics
	nodeID   string
	qos      byte

	reportInterval time.Duration
	invokeTimeout  time.Duration
	logger         Logger
}

// Options configures a Gateway.
type Options struct {
	NodeID         string
	QoS            byte
	ReportInterval time.Duration
	InvokeTimeout  time.Duration

	// Exporter is optional.
	Exporter Exporter
}

// New creates a gateway over the given registry and broker.
func New(registry *thing.Registry, broker Broker, opts Options) *Gateway {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.InvokeTimeout <= 0 {
		opts.InvokeTimeout = defaultInvokeTimeout
	}
	return &Gateway{
		registry:       registry,
		broker:         broker,
		exporter:       opts.Exporter,
		nodeID:         opts.NodeID,
		qos:            opts.QoS,
		reportInterval: opts.ReportInterval,
		invokeTimeout:  opts.InvokeTimeout,
		logger:         noopLogger{},
	}
}

// SetLogger sets the logger for the gateway.
func (g *Gateway) SetLogger(logger Logger) { g.logger = logger }

// Start advertises the capability descriptors, publishes a full state
// snapshot, and subscribes to the command topic.
func (g *Gateway) Start() error {
	if err := g.Resync(); err != nil {
		return err
	}
	if err := g.broker.Subscribe(g.topics.Command(g.nodeID), g.qos, g.handleCommand); err != nil {
		return fmt.Errorf("subscribing to command topic: %w", err)
	}
	return nil
}

// Resync republishes the retained descriptors and a full (non-delta)
// state snapshot. Called at start and after every reconnect, so the
// orchestrator never works from a stale capability picture.
func (g *Gateway) Resync() error {
	descriptors, err := g.registry.DescriptorsJSON()
	if err != nil {
		return fmt.Errorf("building descriptors: %w", err)
	}
	if err := g.broker.PublishRetained(g.topics.Descriptors(g.nodeID), descriptors); err != nil {
		return fmt.Errorf("publishing descriptors: %w", err)
	}

	snapshot, _, err := g.registry.StatesJSON(false)
	if err != nil {
		return fmt.Errorf("building state snapshot: %w", err)
	}
	if err := g.broker.Publish(g.topics.State(g.nodeID), snapshot, g.qos, false); err != nil {
		return fmt.Errorf("publishing state snapshot: %w", err)
	}

	g.logger.Info("gateway resynced", "node", g.nodeID)
	g.export(snapshot)
	return nil
}

// Run publishes delta state reports until the context is cancelled.
// Cycles where nothing changed publish nothing.
func (g *Gateway) Run(ctx context.Context) {
	ticker := time.NewTicker(g.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.report(); err != nil {
				g.logger.Warn("state report failed", "error", err)
			}
		}
	}
}

func (g *Gateway) report() error {
	payload, changed, err := g.registry.StatesJSON(true)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if !g.broker.IsConnected() {
		g.logger.Debug("broker offline, state report skipped")
		return nil
	}
	if err := g.broker.Publish(g.topics.State(g.nodeID), payload, g.qos, false); err != nil {
		return err
	}
	g.export(payload)
	return nil
}

// export forwards numeric readings from a state payload to the
// exporter. String and boolean properties are not exported.
func (g *Gateway) export(payload []byte) {
	if g.exporter == nil {
		return
	}

	var records []thing.StateRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		g.logger.Warn("export skipped, bad state payload", "error", err)
		return
	}

	for _, record := range records {
		for prop, value := range record.State {
			var v float64
			switch value.Type() {
			case thing.TypeFloat:
				v, _ = value.Float()
			case thing.TypeNumber:
				n, _ := value.Number()
				v = float64(n)
			default:
				continue
			}
			if err := g.exporter.WriteReading(g.nodeID, record.Name, prop, v); err != nil {
				g.logger.Warn("reading export failed",
					"thing", record.Name,
					"property", prop,
					"error", err,
				)
			}
		}
	}
}

// ack is the command acknowledgement payload.
type ack struct {
	Thing  string `json:"thing,omitempty"`
	Method string `json:"method,omitempty"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Error codes reported in acknowledgements.
const (
	codeParseError      = "parse_error"
	codeUnknownThing    = "unknown_thing"
	codeUnknownMethod   = "unknown_method"
	codeInvalidArgument = "invalid_argument"
	codeActionFailed    = "action_failed"
)

// handleCommand parses and dispatches one command payload. Every
// failure is acknowledged, never fatal: the command path must stay
// available for the next command.
func (g *Gateway) handleCommand(topic string, payload []byte) error {
	cmd, err := thing.ParseCommand(payload)
	if err != nil {
		g.logger.Warn("command rejected", "error", err)
		g.publishAck(ack{OK: false, Code: codeParseError, Error: err.Error()})
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.invokeTimeout)
	defer cancel()

	err = g.registry.Invoke(ctx, cmd)
	if g.exporter != nil {
		if expErr := g.exporter.WriteInvocation(g.nodeID, cmd.Thing, cmd.Method, err); expErr != nil {
			g.logger.Warn("invocation export failed", "error", expErr)
		}
	}
	if err != nil {
		g.logger.Warn("invocation failed",
			"thing", cmd.Thing,
			"method", cmd.Method,
			"error", err,
		)
		g.publishAck(ack{
			Thing:  cmd.Thing,
			Method: cmd.Method,
			OK:     false,
			Code:   errorCode(err),
			Error:  err.Error(),
		})
		return nil
	}

	g.logger.Info("invocation succeeded", "thing", cmd.Thing, "method", cmd.Method)
	g.publishAck(ack{Thing: cmd.Thing, Method: cmd.Method, OK: true})
	return nil
}

func errorCode(err error) string {
	var invalid *thing.InvalidArgumentError
	switch {
	case errors.Is(err, thing.ErrUnknownThing):
		return codeUnknownThing
	case errors.Is(err, thing.ErrUnknownMethod):
		return codeUnknownMethod
	case errors.As(err, &invalid):
		return codeInvalidArgument
	default:
		return codeActionFailed
	}
}

func (g *Gateway) publishAck(a ack) {
	payload, err := json.Marshal(a)
	if err != nil {
		g.logger.Error("marshalling ack", "error", err)
		return
	}
	if err := g.broker.Publish(g.topics.Ack(g.nodeID), payload, g.qos, false); err != nil {
		g.logger.Warn("publishing ack failed", "error", err)
	}
}
