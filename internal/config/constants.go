package config

import "time"

// Application constants
const (
	AppName    = "udderwatch"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable.
	EnvPrefix = "UDDER"
	// ConfigFileEnv names the YAML configuration file.
	ConfigFileEnv     = "UDDER_CONFIG_FILE"
	DefaultConfigFile = "config.yaml"

	DefaultInputDir     = "data/raw"
	DefaultModelsDir    = "models"
	DefaultOutputDir    = "data/output"
	DefaultInstantModel = "instant.json"

	// Upload limits
	DefaultMaxUploadBytes = 50 << 20
	DefaultMaxFiles       = 20

	DefaultHTTPTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
