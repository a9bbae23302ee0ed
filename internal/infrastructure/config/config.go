package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for AquaSense Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node     NodeConfig     `yaml:"node"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	API      APIConfig      `yaml:"api"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	HAL      HALConfig      `yaml:"hal"`
	Report   ReportConfig   `yaml:"report"`
	Drivers  DriversConfig  `yaml:"drivers"`
}

// NodeConfig identifies this device on the uplink.
type NodeConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains the local maintenance HTTP API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB telemetry export settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// HALConfig contains hardware abstraction settings.
type HALConfig struct {
	// VrefMillivolts is the ADC reference voltage. The reference board uses 3.3 V.
	VrefMillivolts int `yaml:"vref_millivolts"`

	// LockTimeoutMillis bounds acquisition of the shared ADC unit.
	LockTimeoutMillis int `yaml:"lock_timeout_millis"`
}

// ReportConfig controls the delta state report loop on the uplink.
type ReportConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// DriversConfig holds per-driver settings.
type DriversConfig struct {
	Tds          TdsConfig          `yaml:"tds"`
	Ph           PhConfig           `yaml:"ph"`
	Temperature  TemperatureConfig  `yaml:"temperature"`
	WaterMonitor WaterMonitorConfig `yaml:"water_monitor"`
	Timer        TimerConfig        `yaml:"timer"`
}

// TdsConfig configures the standalone TDS sensor driver.
type TdsConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Channel          int     `yaml:"channel"`
	IntervalSeconds  int     `yaml:"interval_seconds"`
	Samples          int     `yaml:"samples"`
	KFactor          float64 `yaml:"k_factor"`
	DebounceDecimals int     `yaml:"debounce_decimals"`
}

// PhConfig configures the pH sensor driver.
type PhConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Channel          int     `yaml:"channel"`
	IntervalSeconds  int     `yaml:"interval_seconds"`
	Samples          int     `yaml:"samples"`
	Slope            float64 `yaml:"slope"`
	Intercept        float64 `yaml:"intercept"`
	AlertLow         float64 `yaml:"alert_low"`
	AlertHigh        float64 `yaml:"alert_high"`
	DebounceDecimals int     `yaml:"debounce_decimals"`
}

// TemperatureConfig configures the temperature probe driver.
type TemperatureConfig struct {
	Enabled          bool `yaml:"enabled"`
	IntervalSeconds  int  `yaml:"interval_seconds"`
	DebounceDecimals int  `yaml:"debounce_decimals"`
}

// WaterMonitorConfig configures the combined TDS+pH water quality driver.
type WaterMonitorConfig struct {
	Enabled           bool    `yaml:"enabled"`
	TdsChannel        int     `yaml:"tds_channel"`
	PhChannel         int     `yaml:"ph_channel"`
	IntervalSeconds   int     `yaml:"interval_seconds"`
	Samples           int     `yaml:"samples"`
	KFactor           float64 `yaml:"k_factor"`
	Slope             float64 `yaml:"slope"`
	Intercept         float64 `yaml:"intercept"`
	ConductivityAlert float64 `yaml:"conductivity_alert"`
	DebounceDecimals  int     `yaml:"debounce_decimals"`
}

// TimerConfig configures the countdown timer driver.
type TimerConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	MaxSeconds      int  `yaml:"max_seconds"`
}

// Load reads configuration from the given YAML file.
//
// Load order: built-in defaults, then the file, then AQUASENSE_* environment
// overrides, then validation. A missing file is an error; environments without
// one should use DefaultConfig directly.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults.
// The driver defaults mirror the reference board: TDS on channel 2 every 2 s,
// pH on channel 1 every 60 s, temperature every 2 s, timer tick every second.
func DefaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:   "aquasense-01",
			Name: "AquaSense",
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "aquasense-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		HAL: HALConfig{
			VrefMillivolts:    3300,
			LockTimeoutMillis: 100,
		},
		Report: ReportConfig{
			IntervalSeconds: 5,
		},
		Drivers: DriversConfig{
			Tds: TdsConfig{
				Enabled:          true,
				Channel:          2,
				IntervalSeconds:  2,
				Samples:          32,
				KFactor:          0.67,
				DebounceDecimals: 2,
			},
			Ph: PhConfig{
				Enabled:          true,
				Channel:          1,
				IntervalSeconds:  60,
				Samples:          16,
				Slope:            -14.0,
				Intercept:        30.24,
				AlertLow:         4.0,
				AlertHigh:        10.0,
				DebounceDecimals: 2,
			},
			Temperature: TemperatureConfig{
				Enabled:          true,
				IntervalSeconds:  2,
				DebounceDecimals: 2,
			},
			WaterMonitor: WaterMonitorConfig{
				Enabled:           false,
				TdsChannel:        2,
				PhChannel:         1,
				IntervalSeconds:   60,
				Samples:           16,
				KFactor:           0.67,
				Slope:             -14.0,
				Intercept:         30.24,
				ConductivityAlert: 100.0,
				DebounceDecimals:  2,
			},
			Timer: TimerConfig{
				Enabled:         true,
				IntervalSeconds: 1,
				MaxSeconds:      60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: AQUASENSE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Node
	if v := os.Getenv("AQUASENSE_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}

	// MQTT
	if v := os.Getenv("AQUASENSE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("AQUASENSE_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("AQUASENSE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("AQUASENSE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("AQUASENSE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("AQUASENSE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set AQUASENSE_INFLUXDB_TOKEN)")
		}
	}

	if c.HAL.VrefMillivolts <= 0 {
		errs = append(errs, "hal.vref_millivolts must be positive")
	}
	if c.HAL.LockTimeoutMillis <= 0 {
		errs = append(errs, "hal.lock_timeout_millis must be positive")
	}

	if c.Report.IntervalSeconds <= 0 {
		errs = append(errs, "report.interval_seconds must be positive")
	}

	intervals := map[string]int{
		"drivers.tds.interval_seconds":           c.Drivers.Tds.IntervalSeconds,
		"drivers.ph.interval_seconds":            c.Drivers.Ph.IntervalSeconds,
		"drivers.temperature.interval_seconds":   c.Drivers.Temperature.IntervalSeconds,
		"drivers.water_monitor.interval_seconds": c.Drivers.WaterMonitor.IntervalSeconds,
		"drivers.timer.interval_seconds":         c.Drivers.Timer.IntervalSeconds,
	}
	for name, interval := range intervals {
		if interval <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// LockTimeout returns the shared ADC lock timeout as a Duration.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.HAL.LockTimeoutMillis) * time.Millisecond
}

// ReportInterval returns the delta report interval as a Duration.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.Report.IntervalSeconds) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
