package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  path: "/dev/ttyUSB0"
  baud_rate: 19200
  tick: 1ms
gateway:
  address: "gateway.example.com"
  port: 443
  update_rate: 500ms
  certificate: "./certificate.crt"
  password: "hunter2"
logging:
  level: "debug"
  format: "text"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Path != "/dev/ttyUSB0" {
		t.Errorf("Device.Path = %q, want %q", cfg.Device.Path, "/dev/ttyUSB0")
	}
	if cfg.Device.Tick != time.Millisecond {
		t.Errorf("Device.Tick = %v, want %v", cfg.Device.Tick, time.Millisecond)
	}
	if cfg.Gateway.Address != "gateway.example.com" {
		t.Errorf("Gateway.Address = %q, want %q", cfg.Gateway.Address, "gateway.example.com")
	}
	if cfg.Gateway.UpdateRate != 500*time.Millisecond {
		t.Errorf("Gateway.UpdateRate = %v, want %v", cfg.Gateway.UpdateRate, 500*time.Millisecond)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `device: {path: "/dev/ttyACM0"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.BaudRate != 19200 {
		t.Errorf("Device.BaudRate = %d, want 19200", cfg.Device.BaudRate)
	}
	if cfg.Gateway.Port != 443 {
		t.Errorf("Gateway.Port = %d, want 443", cfg.Gateway.Port)
	}
	if cfg.Gateway.CertificatePath != "./certificate.crt" {
		t.Errorf("Gateway.CertificatePath = %q, want %q", cfg.Gateway.CertificatePath, "./certificate.crt")
	}
	if cfg.Monitor.LogLines != 256 {
		t.Errorf("Monitor.LogLines = %d, want 256", cfg.Monitor.LogLines)
	}
	if cfg.Monitor.SpeedHistory != 32 {
		t.Errorf("Monitor.SpeedHistory = %d, want 32", cfg.Monitor.SpeedHistory)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FOXCONTROL_GATEWAY_PASSWORD", "from-env")

	cfg, err := Load(writeConfig(t, `gateway: {password: "from-file"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.Password != "from-env" {
		t.Errorf("Gateway.Password = %q, want %q", cfg.Gateway.Password, "from-env")
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero baud rate", func(c *Config) { c.Device.BaudRate = 0 }},
		{"zero tick", func(c *Config) { c.Device.Tick = 0 }},
		{"port too high", func(c *Config) { c.Gateway.Port = 70000 }},
		{"zero update rate", func(c *Config) { c.Gateway.UpdateRate = 0 }},
		{"zero log lines", func(c *Config) { c.Monitor.LogLines = 0 }},
		{"invalid qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"mqtt enabled without host", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker.Host = "" }},
		{"influx enabled without url", func(c *Config) { c.InfluxDB.Enabled = true }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v, want nil", err)
	}
}
