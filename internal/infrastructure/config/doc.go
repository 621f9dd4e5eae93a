// Package config handles loading and validating camcore configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (passwords, keys, the signing secret) should be set
//     via environment variables rather than the config file
//   - The config file should have restricted permissions (0600)
//   - A missing or short session secret fails validation at startup
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
