package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for FoxControl.
// All configuration is loaded from YAML and can be overridden by environment
// variables; command-line flags are merged on top by the entry point.
type Config struct {
	Device   DeviceConfig   `yaml:"device"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DeviceConfig contains serial device settings.
type DeviceConfig struct {
	// Path is the serial device node, e.g. "/dev/ttyUSB0".
	Path string `yaml:"path"`

	// BaudRate is the requested serial rate. It is snapped to the nearest
	// rate the serial stack supports (see internal/serial).
	BaudRate int `yaml:"baud_rate"`

	// Tick is the pacing interval for the transmit and receive loops.
	// One command token leaves the queue per tick at most.
	Tick time.Duration `yaml:"tick"`
}

// GatewayConfig contains control gateway connection settings.
type GatewayConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`

	// UpdateRate is the pause between fetch cycles.
	UpdateRate time.Duration `yaml:"update_rate"`

	// CertificatePath is the X509 certificate used as the root of trust
	// for gateway TLS verification.
	CertificatePath string `yaml:"certificate"`

	// Password is the long-lived password used to authenticate every
	// gateway request and to create sessions.
	Password string `yaml:"password"`

	// InsecureSkipVerify disables certificate verification entirely.
	// Only for local development against self-signed gateways.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// MonitorConfig contains settings for the local monitor surface.
type MonitorConfig struct {
	// Enabled keeps snapshots, log buffers and speed history for the UI.
	Enabled bool `yaml:"enabled"`

	// LogLines is the retained line count of each bounded log sink.
	LogLines int `yaml:"log_lines"`

	// SpeedHistory is the retained sample count of the speed history.
	SpeedHistory int `yaml:"speed_history"`
}

// MQTTConfig contains settings for the optional MQTT status mirror.
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains settings for the optional speed telemetry recorder.
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

// Load reads configuration from a YAML file and applies environment variable
// overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FOXCONTROL_SECTION_KEY
// For example: FOXCONTROL_GATEWAY_PASSWORD, FOXCONTROL_INFLUXDB_TOKEN
//
// Presence of the serial device path, gateway address and password is not
// checked here; the entry point verifies those after merging flags.
func Load(path string) (*Config, error) {
	cfg := Default()

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

// Default returns a Config with sensible defaults. Used directly when no
// configuration file is given and everything comes from flags.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			BaudRate: 19200,
			Tick:     time.Millisecond,
		},
		Gateway: GatewayConfig{
			Port:            443,
			UpdateRate:      500 * time.Millisecond,
			CertificatePath: "./certificate.crt",
		},
		Monitor: MonitorConfig{
			LogLines:     256,
			SpeedHistory: 32,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "foxcontrol",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides replaces secret-bearing fields from the environment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOXCONTROL_GATEWAY_PASSWORD"); v != "" {
		cfg.Gateway.Password = v
	}
	if v := os.Getenv("FOXCONTROL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FOXCONTROL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("FOXCONTROL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks value ranges. It deliberately does not require the serial
// device path or gateway credentials: those may arrive later via flags.
func (c *Config) Validate() error {
	if c.Device.BaudRate <= 0 {
		return fmt.Errorf("device.baud_rate must be positive, got %d", c.Device.BaudRate)
	}
	if c.Device.Tick <= 0 {
		return fmt.Errorf("device.tick must be positive, got %v", c.Device.Tick)
	}
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port must be in 1..65535, got %d", c.Gateway.Port)
	}
	if c.Gateway.UpdateRate <= 0 {
		return fmt.Errorf("gateway.update_rate must be positive, got %v", c.Gateway.UpdateRate)
	}
	if c.Monitor.LogLines <= 0 {
		return fmt.Errorf("monitor.log_lines must be positive, got %d", c.Monitor.LogLines)
	}
	if c.Monitor.SpeedHistory <= 0 {
		return fmt.Errorf("monitor.speed_history must be positive, got %d", c.Monitor.SpeedHistory)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		return fmt.Errorf("mqtt.broker.host is required when mqtt is enabled")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		return fmt.Errorf("influxdb.url is required when influxdb is enabled")
	}
	if !validLogLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// validLogLevel reports whether level is a recognised logging level.
func validLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}
