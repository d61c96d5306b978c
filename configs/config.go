package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/speech-trainer/pkg/audio/config"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	ConfigDir    string `mapstructure:"config_dir" yaml:"config_dir"`
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`

	// Feature extraction
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`

	// Scaler and score model parameters
	Model ModelConfig `mapstructure:"model" yaml:"model"`

	// Score smoothing
	Smoothing SmoothingConfig `mapstructure:"smoothing" yaml:"smoothing"`

	// Advice generation
	Advice AdviceConfig `mapstructure:"advice" yaml:"advice"`

	// Default training settings
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// HTTP API
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Attempt persistence
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// Metrics emission
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output"`
}

// AnalysisConfig contains feature extraction settings
type AnalysisConfig struct {
	TimeBudget              time.Duration `mapstructure:"time_budget" yaml:"time_budget"`
	PitchFloor              float64       `mapstructure:"pitch_floor" yaml:"pitch_floor"`
	PitchCeiling            float64       `mapstructure:"pitch_ceiling" yaml:"pitch_ceiling"`
	EnableSpectralHNR       bool          `mapstructure:"enable_spectral_hnr" yaml:"enable_spectral_hnr"`
	DuplicateFormantSamples bool          `mapstructure:"duplicate_formant_samples" yaml:"duplicate_formant_samples"`
}

// ModelConfig locates parameter files; empty paths select the bundled reference parameters
type ModelConfig struct {
	ScalerPath string `mapstructure:"scaler_path" yaml:"scaler_path"`
	ModelPath  string `mapstructure:"model_path" yaml:"model_path"`
}

// SmoothingConfig contains baseline smoothing settings
type SmoothingConfig struct {
	Alpha      float64 `mapstructure:"alpha" yaml:"alpha"`
	StartScore float64 `mapstructure:"start_score" yaml:"start_score"`
}

// AdviceConfig contains advice engine settings. A zero seed draws
// compliments from the process-wide source.
type AdviceConfig struct {
	Seed        uint64   `mapstructure:"seed" yaml:"seed"`
	Compliments []string `mapstructure:"compliments" yaml:"compliments"`
	Numbered    bool     `mapstructure:"numbered" yaml:"numbered"`
}

// SessionConfig contains the default training settings of CLI sessions
type SessionConfig struct {
	Topic           string `mapstructure:"topic" yaml:"topic"`
	DurationMinutes int    `mapstructure:"duration_minutes" yaml:"duration_minutes"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Mode            string        `mapstructure:"mode" yaml:"mode"`
}

// StoreConfig selects the attempt store
type StoreConfig struct {
	Backend        string        `mapstructure:"backend" yaml:"backend"`
	MongoURI       string        `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	Database       string        `mapstructure:"database" yaml:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
}

// MetricsConfig contains metric emission settings
type MetricsConfig struct {
	Enabled bool     `mapstructure:"enabled" yaml:"enabled"`
	Prefix  string   `mapstructure:"prefix" yaml:"prefix"`
	Tags    []string `mapstructure:"tags" yaml:"tags"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision       int  `mapstructure:"precision" yaml:"precision"`
	IncludeFeatures bool `mapstructure:"include_features" yaml:"include_features"`
	Timestamps      bool `mapstructure:"timestamps" yaml:"timestamps"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom decodes configuration from v, filling unset keys with defaults
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ApplyDefaults registers default values on v
func ApplyDefaults(v *viper.Viper) {
	setDefaults(v)
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	switch config.OutputFormat {
	case "json", "yaml", "table":
	default:
		return fmt.Errorf("output format must be json, yaml or table, got %q", config.OutputFormat)
	}

	if config.Analysis.TimeBudget < 0 {
		return fmt.Errorf("analysis time budget cannot be negative")
	}

	if config.Analysis.PitchFloor <= 0 || config.Analysis.PitchCeiling <= config.Analysis.PitchFloor {
		return fmt.Errorf("pitch range must satisfy 0 < floor < ceiling")
	}

	if config.Smoothing.Alpha <= 0 {
		return fmt.Errorf("smoothing alpha must be positive")
	}

	if config.Session.DurationMinutes < 0 {
		return fmt.Errorf("session duration cannot be negative")
	}

	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max upload bytes must be positive")
	}

	switch config.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server mode must be debug, release or test, got %q", config.Server.Mode)
	}

	switch config.Store.Backend {
	case "memory":
	case "mongo":
		if config.Store.MongoURI == "" {
			return fmt.Errorf("mongo store requires store.mongo_uri")
		}
	default:
		return fmt.Errorf("store backend must be memory or mongo, got %q", config.Store.Backend)
	}

	if config.Output.Precision < 0 {
		return fmt.Errorf("output precision cannot be negative")
	}

	return nil
}

// FeatureConfig derives the extractor configuration
func (c *Config) FeatureConfig() *config.FeatureConfig {
	fc := config.DefaultFeatureConfig()
	fc.TimeBudget = c.Analysis.TimeBudget
	fc.Pitch.Floor = c.Analysis.PitchFloor
	fc.Pitch.Ceiling = c.Analysis.PitchCeiling
	fc.EnableSpectralHNR = c.Analysis.EnableSpectralHNR
	fc.DuplicateFormantSamples = c.Analysis.DuplicateFormantSamples
	return fc
}
