// Package config handles loading and validating AquaSense Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The driver defaults encode the reference hardware: a TDS probe and a pH
// probe multiplexed onto one ADC unit, a one-wire temperature probe, and a
// countdown timer. Deployments adjust channels, intervals, calibration
// coefficients and debounce precision without recompiling.
//
// Security Considerations:
//   - Sensitive values (broker password, InfluxDB token) should be set via
//     environment variables rather than the file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Node.Name)
package config
