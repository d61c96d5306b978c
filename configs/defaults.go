package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets default configuration values for all components
func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	d := GetDefaultConfig()

	// Application defaults
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("config_dir", filepath.Join(home, ".config", "speech-trainer"))
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", "speech-trainer"))

	// Analysis defaults
	v.SetDefault("analysis.time_budget", d.Analysis.TimeBudget)
	v.SetDefault("analysis.pitch_floor", d.Analysis.PitchFloor)
	v.SetDefault("analysis.pitch_ceiling", d.Analysis.PitchCeiling)
	v.SetDefault("analysis.enable_spectral_hnr", d.Analysis.EnableSpectralHNR)
	v.SetDefault("analysis.duplicate_formant_samples", d.Analysis.DuplicateFormantSamples)

	// Model defaults
	v.SetDefault("model.scaler_path", "")
	v.SetDefault("model.model_path", "")

	// Smoothing defaults
	v.SetDefault("smoothing.alpha", d.Smoothing.Alpha)
	v.SetDefault("smoothing.start_score", d.Smoothing.StartScore)

	// Advice defaults
	v.SetDefault("advice.seed", d.Advice.Seed)
	v.SetDefault("advice.compliments", d.Advice.Compliments)
	v.SetDefault("advice.numbered", d.Advice.Numbered)

	// Session defaults
	v.SetDefault("session.topic", d.Session.Topic)
	v.SetDefault("session.duration_minutes", d.Session.DurationMinutes)

	// Server defaults
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.mode", d.Server.Mode)

	// Store defaults
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.mongo_uri", d.Store.MongoURI)
	v.SetDefault("store.database", d.Store.Database)
	v.SetDefault("store.connect_timeout", d.Store.ConnectTimeout)

	// Metrics defaults
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.prefix", d.Metrics.Prefix)
	v.SetDefault("metrics.tags", d.Metrics.Tags)

	// Output defaults
	v.SetDefault("output.precision", d.Output.Precision)
	v.SetDefault("output.include_features", d.Output.IncludeFeatures)
	v.SetDefault("output.timestamps", d.Output.Timestamps)
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		// Application settings defaults
		Verbose:      false,
		LogLevel:     "info",
		LogFormat:    "text",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", "speech-trainer"),
		DataDir:      filepath.Join(home, ".local", "share", "speech-trainer"),

		Analysis:  GetDefaultAnalysisConfig(),
		Smoothing: SmoothingConfig{Alpha: 1.0, StartScore: 0},
		Advice:    AdviceConfig{Numbered: true},
		Session:   SessionConfig{Topic: "lecture", DurationMinutes: 10},
		Server:    GetDefaultServerConfig(),
		Store:     GetDefaultStoreConfig(),
		Metrics:   MetricsConfig{Enabled: false, Prefix: "speech_trainer"},
		Output:    OutputConfig{Precision: 2, IncludeFeatures: false, Timestamps: true},
	}
}

// GetDefaultAnalysisConfig returns default feature extraction settings
func GetDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		TimeBudget:              30 * time.Second,
		PitchFloor:              75,
		PitchCeiling:            600,
		EnableSpectralHNR:       true,
		DuplicateFormantSamples: true,
	}
}

// GetDefaultServerConfig returns default HTTP API settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		MaxUploadBytes:  32 << 20,
		ShutdownTimeout: 10 * time.Second,
		Mode:            "release",
	}
}

// GetDefaultStoreConfig returns default persistence settings
func GetDefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:        "memory",
		Database:       "speech_trainer",
		ConnectTimeout: 10 * time.Second,
	}
}
