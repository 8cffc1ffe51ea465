// Package config handles loading and validating FoxControl configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of value ranges
//   - Default value handling
//
// Command-line flags are merged on top of the loaded configuration by the
// cmd/foxcontrol entry point; this package only knows about the file and
// the environment.
//
// Security Considerations:
//   - Sensitive values (gateway password, MQTT credentials, InfluxDB token)
//     should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Path)
package config
