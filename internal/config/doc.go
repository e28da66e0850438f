// Package config loads the application configuration.
//
// # Sources
//
// Values are resolved in the following order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. YAML file named by UDDER_CONFIG_FILE, or config.yaml when present
//	3. Environment variables prefixed with UDDER_
//
// Environment variables follow the section layout of Config:
//
//	UDDER_LOGGING_LEVEL=debug
//	UDDER_PATHS_MODELS_DIR=/srv/models
//	UDDER_PIPELINE_MODE=instant
//	UDDER_PIPELINE_HORIZON_KEYS=t1,t2,t3,next3
//	UDDER_SERVER_PORT=8080
//
// # Validation
//
// Load validates struct tags with go-playground/validator and then applies
// cross-field checks, such as the long rolling window not being shorter
// than the short one. An invalid configuration is never returned.
package config
