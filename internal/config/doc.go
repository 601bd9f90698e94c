// Package config loads the creditfile configuration.
//
// # Configuration Sources
//
// Values are layered, later sources winning:
//
//  1. Defaults (Default)
//  2. A YAML file (--config, or the first of config.yaml, configs/config.yaml)
//  3. Environment variables prefixed CREDITFILE_
//
// Environment names follow the struct nesting:
//
//	CREDITFILE_LOGGING_LEVEL=debug
//	CREDITFILE_PATHS_OUTPUT_DIR=/var/lib/creditfile
//	CREDITFILE_PIPELINE_WORKERS=8
//	CREDITFILE_PIPELINE_INTEREST_RATE=0.035
//	CREDITFILE_SERVER_PORT=9090
//	CREDITFILE_TELEMETRY_TRACING_ENABLED=true
//
// # Validation
//
// The merged configuration is checked with validator struct tags. Paths are
// resolved against the directory given to ResolvePaths, and EnsureDirectories
// creates the output and log directories.
//
// # Usage
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    return err
//	}
package config
