package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/speech-trainer/configs"
	"github.com/RyanBlaney/speech-trainer/internal/store"
	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/advice"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
	"github.com/RyanBlaney/speech-trainer/pkg/scoring"
)

// buildTrainer wires the scoring pipeline described by the configuration
func buildTrainer(cfg *configs.Config, logger logging.Logger) (*trainer.Trainer, error) {
	var scaler *scoring.Scaler
	if cfg.Model.ScalerPath != "" {
		s, err := scoring.LoadScalerFile(resolvePath(cfg, cfg.Model.ScalerPath))
		if err != nil {
			return nil, fmt.Errorf("failed to load scaler parameters: %w", err)
		}
		scaler = s
	}

	var model scoring.Model
	if cfg.Model.ModelPath != "" {
		m, err := scoring.LoadModelFile(resolvePath(cfg, cfg.Model.ModelPath))
		if err != nil {
			return nil, fmt.Errorf("failed to load model parameters: %w", err)
		}
		model = m
	}

	opts := []advice.Option{advice.WithCompliments(cfg.Advice.Compliments)}
	if cfg.Advice.Seed != 0 {
		opts = append(opts, advice.WithSeed(cfg.Advice.Seed))
	}

	return trainer.NewTrainer(&trainer.TrainerConfig{
		Features: cfg.FeatureConfig(),
		Scaler:   scaler,
		Model:    model,
		Smoother: scoring.NewSmoother(cfg.Smoothing.Alpha),
		Advice:   advice.NewEngine(opts...),
		Logger:   logger,
	})
}

// storeConfig maps the configuration onto a store backend
func storeConfig(cfg *configs.Config) store.Config {
	return store.Config{
		Backend: cfg.Store.Backend,
		Mongo: store.MongoConfig{
			URI:            cfg.Store.MongoURI,
			Database:       cfg.Store.Database,
			ConnectTimeout: cfg.Store.ConnectTimeout,
		},
	}
}

// resolvePath looks up relative parameter paths in the config directory
// when they do not exist relative to the working directory
func resolvePath(cfg *configs.Config, path string) string {
	if filepath.IsAbs(path) || cfg.ConfigDir == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	candidate := filepath.Join(cfg.ConfigDir, path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

// loadConfigFromFile reads and validates a standalone configuration file
func loadConfigFromFile(filePath string) (*configs.Config, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", filePath)
	}

	v := viper.New()
	v.SetConfigFile(filePath)
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml", ".json":
	default:
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	cfg, err := configs.LoadConfigFrom(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerateExampleConfig writes the default configuration as YAML
func GenerateExampleConfig(outputFile string) error {
	data, err := yaml.Marshal(configs.GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateConfigFile loads a configuration file, validates it and checks
// that its scaler and model parameters load and agree
func ValidateConfigFile(configFile string) (*configs.Config, error) {
	cfg, err := loadConfigFromFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := configs.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := cfg.FeatureConfig().Validate(); err != nil {
		return nil, fmt.Errorf("analysis configuration invalid: %w", err)
	}

	if _, err := buildTrainer(cfg, logging.NewDefaultLogger()); err != nil {
		return nil, fmt.Errorf("scoring configuration invalid: %w", err)
	}

	return cfg, nil
}
