// Package config provides centralized configuration management for the
// health-rank-dash ingest pipeline. It handles loading configuration from
// multiple sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern CHR_* for namespacing:
//
//	CHR_DATA_CSV_PATH=data/analytic_data2025_v2.csv
//	CHR_SCHEMA_MINIMUM_INDICATORS=10
//	CHR_PROCESSING_SHARDS=4
//	CHR_LOGGING_LEVEL=info
//
// # Validation
//
// All configuration is validated at load time with struct tags
// (go-playground/validator) plus cross-field checks: thresholds stay in
// [0, 1], year_min never exceeds year_max, and required column lists are
// non-empty.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// For testing, use config.Default() and override the fields under test;
// nothing in the package reads the environment after Load returns.
package config
