package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Output file,required_if=Output both"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig contains the report pipeline settings
type PipelineConfig struct {
	Workers        int           `yaml:"workers" envconfig:"WORKERS" validate:"min=1,max=256"`
	InterestRate   float64       `yaml:"interest_rate" envconfig:"INTEREST_RATE" validate:"gte=0,lt=1"`
	VocabularyFile string        `yaml:"vocabulary_file" envconfig:"VOCABULARY_FILE"`
	ModelFile      string        `yaml:"model_file" envconfig:"MODEL_FILE"`
	ValidateSchema bool          `yaml:"validate_schema" envconfig:"VALIDATE_SCHEMA"`
	Score          bool          `yaml:"score" envconfig:"SCORE"`
	WatchSettle    time.Duration `yaml:"watch_settle" envconfig:"WATCH_SETTLE" validate:"gte=0"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxUploadSize   int64           `yaml:"max_upload_size" envconfig:"MAX_UPLOAD_SIZE" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"required_if=Enabled true,gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"required_if=Enabled true,gte=0"`
}

// TelemetryConfig toggles metrics and tracing
type TelemetryConfig struct {
	MetricsEnabled bool    `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TracingEnabled bool    `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRate     float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE" validate:"gte=0,lte=1"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Paths: PathsConfig{
			InputDir:  DefaultInputDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Pipeline: PipelineConfig{
			Workers:        DefaultWorkers,
			InterestRate:   DefaultInterestRate,
			ValidateSchema: true,
			Score:          false,
			WatchSettle:    DefaultWatchSettle,
		},
		Server: ServerConfig{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadSize:   DefaultMaxUploadSize,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
			TracingEnabled: false,
			TraceExporter:  "stdout",
			SampleRate:     1.0,
			Environment:    "development",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path and
// CREDITFILE_* environment variables, then validates it. An empty path
// falls back to the well-known config file locations; a missing file there
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// unset variables leave file and default values untouched
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file at path onto cfg
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// Validate checks the struct constraints of every section
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s, got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// findConfigFile returns the first config file found in the common locations
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
