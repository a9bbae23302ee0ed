// AquaSense Core - Aquarium Monitoring Node
//
// This is the main entry point for the AquaSense Core application.
// AquaSense is a water-quality monitoring node designed for:
//   - Unattended long-term operation
//   - Offline-first behaviour (local API keeps working without a broker)
//   - Uniform named-Thing access to every sensor and actuator
//
// For architecture details, see: docs/architecture/system-overview.md
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/blueharbor/aquasense-core/internal/alert"
	"github.com/blueharbor/aquasense-core/internal/api"
	"github.com/blueharbor/aquasense-core/internal/drivers"
	"github.com/blueharbor/aquasense-core/internal/gateway"
	"github.com/blueharbor/aquasense-core/internal/hal"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/config"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/influxdb"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/logging"
	"github.com/blueharbor/aquasense-core/internal/infrastructure/mqtt"
	"github.com/blueharbor/aquasense-core/internal/thing"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AquaSense Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	cfg, err := loadConfig(log)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Hardware abstraction. The simulated ADC and probe stand in for the
	// board peripherals; a real build swaps these two constructors.
	adc := hal.NewSimADC()
	probe := hal.NewSimProbe(25.0)
	sharedADC := hal.NewSharedADC(adc, cfg.LockTimeout())
	log.Info("hardware initialised",
		"vref_mv", cfg.HAL.VrefMillivolts,
		"lock_timeout", cfg.LockTimeout(),
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled, running local-only")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Alert dispatcher: log sink always, MQTT notify sink when connected.
	sinks := []alert.Sink{alert.NewLogSink(log)}
	if mqttClient != nil {
		notifyTopic := mqtt.Topics{}.Notify(cfg.Node.ID)
		sinks = append(sinks, alert.NewMQTTSink(mqttClient, notifyTopic, byte(cfg.MQTT.QoS)))
	}
	if influxClient != nil {
		sinks = append(sinks, alert.NewExportSink(influxClient, cfg.Node.ID))
	}
	dispatcher := alert.NewDispatcher(0, sinks...)
	dispatcher.SetLogger(log)

	// Build the registry. Registration order is fixed so descriptor and
	// state payloads are stable across restarts.
	registry := thing.NewRegistry()
	runners, err := buildDrivers(cfg, registry, adc, sharedADC, probe, dispatcher, log)
	if err != nil {
		return fmt.Errorf("building drivers: %w", err)
	}
	log.Info("thing registry initialised", "things", registry.Len())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()

	for _, d := range runners {
		wg.Add(1)
		go func(d drivers.Driver) {
			defer wg.Done()
			d.Run(ctx)
		}(d)
	}

	// Start the orchestrator uplink (requires MQTT)
	if mqttClient != nil {
		opts := gateway.Options{
			NodeID:         cfg.Node.ID,
			QoS:            byte(cfg.MQTT.QoS),
			ReportInterval: cfg.ReportInterval(),
		}
		if influxClient != nil {
			opts.Exporter = influxClient
		}
		gw := gateway.New(registry, mqttClient, opts)
		gw.SetLogger(log)
		if startErr := gw.Start(); startErr != nil {
			return fmt.Errorf("starting gateway: %w", startErr)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			gw.Run(ctx)
		}()

		// Resync descriptors and state after every broker reconnect
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected, resyncing")
			if resyncErr := gw.Resync(); resyncErr != nil {
				log.Error("resync after reconnect failed", "error", resyncErr)
			}
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("gateway started", "node", cfg.Node.ID)
	}

	// Start the local maintenance API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: registry,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			log.Info("stopping API server")
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error stopping API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)
	} else {
		log.Info("API server disabled")
	}

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Drivers, gateway and dispatcher all stop on context cancellation;
	// wait for them before the deferred Close() calls tear down the
	// API server, InfluxDB and MQTT in reverse order.
	wg.Wait()

	log.Info("AquaSense Core stopped")
	return nil
}

// loadConfig loads the YAML configuration. A missing file at the default
// path falls back to built-in defaults; an explicitly configured path
// must exist.
func loadConfig(log *logging.Logger) (*config.Config, error) {
	path := os.Getenv("AQUASENSE_CONFIG")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		log.Info("configuration loaded", "path", path)
		return cfg, nil
	}

	if _, err := os.Stat(defaultConfigPath); os.IsNotExist(err) {
		log.Info("no config file found, using defaults", "path", defaultConfigPath)
		cfg := config.DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		return nil, err
	}
	log.Info("configuration loaded", "path", defaultConfigPath)
	return cfg, nil
}

// buildDrivers constructs the enabled drivers, registers their Things in
// a fixed order, and returns the set to run.
//
// The temperature sensor is always constructed because the pH and water
// monitor drivers compensate against it; until its first successful read
// (or when disabled) it reports the startup default of 25 degrees C. It
// is only registered and run when enabled.
func buildDrivers(
	cfg *config.Config,
	registry *thing.Registry,
	adc hal.ADC,
	sharedADC *hal.SharedADC,
	probe hal.TemperatureProbe,
	notifier alert.Notifier,
	log *logging.Logger,
) ([]drivers.Driver, error) {
	var runners []drivers.Driver
	vref := cfg.HAL.VrefMillivolts

	temp, err := drivers.NewTemperatureSensor(cfg.Drivers.Temperature, probe)
	if err != nil {
		return nil, fmt.Errorf("temperature sensor: %w", err)
	}
	temp.SetLogger(log)
	if cfg.Drivers.Temperature.Enabled {
		if err := registry.Add(temp.Thing()); err != nil {
			return nil, err
		}
		runners = append(runners, temp)
	}

	if cfg.Drivers.Tds.Enabled {
		tds, err := drivers.NewTdsSensor(cfg.Drivers.Tds, adc, vref)
		if err != nil {
			return nil, fmt.Errorf("tds sensor: %w", err)
		}
		tds.SetLogger(log)
		if err := registry.Add(tds.Thing()); err != nil {
			return nil, err
		}
		runners = append(runners, tds)
	}

	if cfg.Drivers.Ph.Enabled {
		ph, err := drivers.NewPhSensor(cfg.Drivers.Ph, sharedADC, vref, temp, notifier)
		if err != nil {
			return nil, fmt.Errorf("ph sensor: %w", err)
		}
		ph.SetLogger(log)
		if err := registry.Add(ph.Thing()); err != nil {
			return nil, err
		}
		runners = append(runners, ph)
	}

	if cfg.Drivers.WaterMonitor.Enabled {
		monitor, err := drivers.NewWaterMonitor(cfg.Drivers.WaterMonitor, sharedADC, vref, temp, notifier)
		if err != nil {
			return nil, fmt.Errorf("water monitor: %w", err)
		}
		monitor.SetLogger(log)
		if err := registry.Add(monitor.Thing()); err != nil {
			return nil, err
		}
		runners = append(runners, monitor)
	}

	if cfg.Drivers.Timer.Enabled {
		timer, err := drivers.NewTimer(cfg.Drivers.Timer, notifier)
		if err != nil {
			return nil, fmt.Errorf("timer: %w", err)
		}
		timer.SetLogger(log)
		if err := registry.Add(timer.Thing()); err != nil {
			return nil, err
		}
		runners = append(runners, timer)
	}

	return runners, nil
}

// healthCheck verifies the optional infrastructure connections are healthy.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
