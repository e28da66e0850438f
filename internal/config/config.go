package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console stdout stderr file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Output file,required_if=Output both"`
}

// PathsConfig locates inputs, models and outputs.
type PathsConfig struct {
	InputDir       string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	ModelsDir      string `yaml:"models_dir" envconfig:"MODELS_DIR" validate:"required"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	DescriptionLog string `yaml:"description_log" envconfig:"DESCRIPTION_LOG"`
}

// PipelineConfig is the immutable prediction pipeline configuration.
type PipelineConfig struct {
	Mode              string    `yaml:"mode" envconfig:"MODE" validate:"oneof=cascade instant"`
	Epsilon           float64   `yaml:"epsilon" envconfig:"EPSILON" validate:"gt=0"`
	LagDepth          int       `yaml:"lag_depth" envconfig:"LAG_DEPTH" validate:"gte=0,lte=30"`
	ShortWindow       int       `yaml:"short_window" envconfig:"SHORT_WINDOW" validate:"gte=1"`
	LongWindow        int       `yaml:"long_window" envconfig:"LONG_WINDOW" validate:"gte=1"`
	MinPeriods        int       `yaml:"min_periods" envconfig:"MIN_PERIODS" validate:"gte=1"`
	HorizonKeys       []string  `yaml:"horizon_keys" envconfig:"HORIZON_KEYS" validate:"unique,dive,required,alphanum"`
	DefaultThreshold  float64   `yaml:"default_threshold" envconfig:"DEFAULT_THRESHOLD" validate:"gte=0,lte=1"`
	ProbabilityColumn string    `yaml:"probability_column" envconfig:"PROBABILITY_COLUMN" validate:"required"`
	OrderBy           string    `yaml:"order_by" envconfig:"ORDER_BY" validate:"oneof=timestamp date"`
	Workers           int       `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
	InstantModel      string    `yaml:"instant_model" envconfig:"INSTANT_MODEL" validate:"required"`
	AlertThresholds   []float64 `yaml:"alert_thresholds" envconfig:"ALERT_THRESHOLDS" validate:"min=1,dive,gte=0,lte=1"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64           `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	MaxFiles        int             `yaml:"max_files" envconfig:"MAX_FILES" validate:"gte=1"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// MetricsConfig selects the telemetry exporters.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled" envconfig:"ENABLED"`
	Exporter   string `yaml:"exporter" envconfig:"EXPORTER" validate:"oneof=prometheus none"`
	Tracing    string `yaml:"tracing" envconfig:"TRACING" validate:"oneof=stdout none"`
	ListenAddr string `yaml:"listen_addr" envconfig:"LISTEN_ADDR"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/udderwatch.log",
		},
		Paths: PathsConfig{
			InputDir:  DefaultInputDir,
			ModelsDir: DefaultModelsDir,
			OutputDir: DefaultOutputDir,
		},
		Pipeline: PipelineConfig{
			Mode:              "cascade",
			Epsilon:           1e-6,
			LagDepth:          5,
			ShortWindow:       3,
			LongWindow:        5,
			MinPeriods:        1,
			HorizonKeys:       []string{"t1", "t2", "t3", "next3"},
			DefaultThreshold:  0.5,
			ProbabilityColumn: "prob_xgb",
			OrderBy:           "timestamp",
			Workers:           4,
			InstantModel:      DefaultInstantModel,
			AlertThresholds:   []float64{0.9, 0.8, 0.7, 0.6, 0.59, 0.38, 0.03, 0.01, 0.005, 0.001},
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     DefaultHTTPTimeout,
			WriteTimeout:    2 * DefaultHTTPTimeout,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadBytes:  DefaultMaxUploadBytes,
			MaxFiles:        DefaultMaxFiles,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			Exporter:   "prometheus",
			Tracing:    "none",
			ListenAddr: ":9464",
		},
	}
}

// Load resolves defaults, the configuration file and the environment.
func Load() (*Config, error) {
	path := os.Getenv(ConfigFileEnv)
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	return LoadFrom(path)
}

// LoadFrom is Load with an explicit file; an empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// fields without a matching variable are left as they are
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid %s: failed %q rule", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}

	p := c.Pipeline
	if p.LongWindow < p.ShortWindow {
		return fmt.Errorf("pipeline long window %d is shorter than short window %d", p.LongWindow, p.ShortWindow)
	}
	if p.MinPeriods > p.ShortWindow {
		return fmt.Errorf("pipeline min periods %d exceeds short window %d", p.MinPeriods, p.ShortWindow)
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.RPS <= 0 || c.Server.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit enabled with rps %v and burst %d", c.Server.RateLimit.RPS, c.Server.RateLimit.Burst)
	}
	return nil
}
