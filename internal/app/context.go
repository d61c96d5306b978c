package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tunein/go-logging/v7/pkg/logger"
	"github.com/tunein/go-logging/v7/pkg/logger/logtypes"
	"github.com/tunein/go-logging/v7/pkg/rootcollector"
	"github.com/tunein/go-logging/v7/pkg/rootlogger"

	"github.com/RyanBlaney/speech-trainer/configs"
	"github.com/RyanBlaney/speech-trainer/internal/api"
	"github.com/RyanBlaney/speech-trainer/internal/progress"
	"github.com/RyanBlaney/speech-trainer/internal/store"
	"github.com/RyanBlaney/speech-trainer/internal/trainer"
	"github.com/RyanBlaney/speech-trainer/pkg/audio"
	"github.com/RyanBlaney/speech-trainer/pkg/logging"
)

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	AudioFiles      []string
	OutputFile      string
	OutputFormat    string
	Topic           string
	DurationMinutes int
	Quiet           bool

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// TrainerApp handles the trainer application lifecycle
type TrainerApp struct {
	ctx     *Context
	config  *configs.Config
	trainer *trainer.Trainer
	store   store.Store
	logger  logging.Logger
	out     io.Writer
}

// NewTrainerApp creates a new trainer application. The configuration is
// taken from ctx.Config when set, otherwise loaded from viper.
func NewTrainerApp(ctx *Context) (*TrainerApp, error) {
	config := ctx.Config
	if config == nil {
		loaded, err := configs.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		config = loaded
	}
	if ctx.OutputFormat != "" {
		config.OutputFormat = ctx.OutputFormat
	}
	if err := configs.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ctx.Config = config

	// Set up logging
	logger := setupLogging(ctx, config)
	ctx.Logger = logger

	tr, err := buildTrainer(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build trainer: %w", err)
	}

	app := &TrainerApp{
		ctx:     ctx,
		config:  config,
		trainer: tr,
		logger:  logger,
		out:     os.Stdout,
	}
	app.setupMetrics()

	logger.Debug("Trainer application initialized", logging.Fields{
		"audio_files":   len(ctx.AudioFiles),
		"output_format": config.OutputFormat,
		"store":         config.Store.Backend,
		"metrics":       config.Metrics.Enabled,
	})

	return app, nil
}

// Run scores the audio files as successive attempts of one training session
func (app *TrainerApp) Run(ctx context.Context) error {
	if len(app.ctx.AudioFiles) == 0 {
		return fmt.Errorf("at least one audio file is required")
	}

	settings, err := app.trainingSettings()
	if err != nil {
		return err
	}

	session, err := trainer.NewSession(settings, app.config.Smoothing.StartScore)
	if err != nil {
		return err
	}

	st, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	if err := st.SaveSession(ctx, session.Snapshot()); err != nil {
		app.logger.Warn("Failed to persist session", logging.Fields{"error": err.Error()})
	}

	app.logger.Debug("Starting training session", logging.Fields{
		"session_id": session.ID,
		"topic":      string(settings.Topic),
		"attempts":   len(app.ctx.AudioFiles),
	})

	attempts := make([]AttemptOutput, 0, len(app.ctx.AudioFiles))
	scored := 0
	for _, path := range app.ctx.AudioFiles {
		result, err := app.evaluateFile(ctx, path, session)
		if errors.Is(err, trainer.ErrSessionExpired) {
			app.logger.Warn("Training time is over, remaining recordings skipped", logging.Fields{
				"session_id": session.ID,
				"file":       path,
			})
			break
		}
		if err != nil {
			attempts = append(attempts, AttemptOutput{File: path, Error: err.Error()})
			continue
		}
		scored++

		if err := st.SaveAttempt(ctx, *result); err != nil {
			app.logger.Warn("Failed to persist attempt", logging.Fields{"error": err.Error(), "attempt": result.Attempt})
		}
		app.collectAttemptMetrics(*result)

		if !app.config.Output.IncludeFeatures {
			result.Features = nil
		}
		attempts = append(attempts, AttemptOutput{File: path, Result: result})
	}

	snapshot := session.Snapshot()
	if err := st.SaveSession(ctx, snapshot); err != nil {
		app.logger.Warn("Failed to persist session", logging.Fields{"error": err.Error()})
	}

	out := &TrainingOutput{
		Session: SessionSummary{
			ID:              snapshot.ID,
			Topic:           snapshot.Topic,
			DurationMinutes: snapshot.Settings.DurationMinutes,
			CreatedAt:       snapshot.CreatedAt,
			ExpiresAt:       snapshot.ExpiresAt,
		},
		Attempts: attempts,
		Progress: progress.NewProgressCalculator(app.logger).CalculateReport(snapshot),
		numbered: app.config.Advice.Numbered,
	}
	if app.config.Output.Timestamps {
		now := time.Now()
		out.Timestamp = &now
	}

	if err := app.outputResults(out); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	// Return error if every recording failed
	if scored == 0 {
		return fmt.Errorf("no recording could be scored")
	}

	return nil
}

// ExtractFeatures reports the feature vector of every audio file
func (app *TrainerApp) ExtractFeatures(ctx context.Context) error {
	if len(app.ctx.AudioFiles) == 0 {
		return fmt.Errorf("at least one audio file is required")
	}

	out := &FeaturesOutput{}
	failed := 0
	for _, path := range app.ctx.AudioFiles {
		entry := FeatureOutput{File: path}

		sample, err := audio.ReadWAV(path)
		if err != nil {
			entry.Error = err.Error()
			out.Files = append(out.Files, entry)
			failed++
			continue
		}
		entry.Duration = sample.Seconds()

		features, err := app.trainer.Extract(ctx, sample)
		if err != nil {
			entry.Error = err.Error()
			failed++
		}
		entry.Features = features
		out.Files = append(out.Files, entry)
	}

	if app.config.Output.Timestamps {
		now := time.Now()
		out.Timestamp = &now
	}

	if err := app.outputResults(out); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	if failed == len(app.ctx.AudioFiles) {
		return fmt.Errorf("feature extraction failed for every file")
	}
	return nil
}

// Serve runs the HTTP API until ctx is cancelled
func (app *TrainerApp) Serve(ctx context.Context) error {
	st, err := app.openStore(ctx)
	if err != nil {
		return err
	}

	gin.SetMode(app.config.Server.Mode)
	server, err := api.NewServer(&api.ServerConfig{
		Trainer:        app.trainer,
		Store:          st,
		Logger:         app.logger,
		StartScore:     app.config.Smoothing.StartScore,
		MaxUploadBytes: app.config.Server.MaxUploadBytes,
		OnAttempt:      app.collectAttemptMetrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create api server: %w", err)
	}

	app.logger.Info("Starting speech trainer API", logging.Fields{
		"addr":  app.config.Server.Addr,
		"store": app.config.Store.Backend,
	})

	return server.Run(ctx, app.config.Server.Addr, app.config.Server.ShutdownTimeout)
}

// Close releases the store
func (app *TrainerApp) Close(ctx context.Context) error {
	if app.store == nil {
		return nil
	}
	err := app.store.Close(ctx)
	app.store = nil
	return err
}

func (app *TrainerApp) evaluateFile(ctx context.Context, path string, session *trainer.Session) (*trainer.Result, error) {
	sample, err := audio.ReadWAV(path)
	if err != nil {
		app.logger.Error(err, "Failed to read recording", logging.Fields{"file": path})
		return nil, err
	}
	return app.trainer.Evaluate(ctx, sample, session)
}

// trainingSettings combines the CLI arguments with the configured defaults
func (app *TrainerApp) trainingSettings() (trainer.TrainingSettings, error) {
	topic := app.ctx.Topic
	if topic == "" {
		topic = app.config.Session.Topic
	}
	minutes := app.ctx.DurationMinutes
	if minutes == 0 {
		minutes = app.config.Session.DurationMinutes
	}

	settings := trainer.TrainingSettings{DurationMinutes: minutes}
	if topic != "" {
		parsed, err := trainer.ParseTopic(topic)
		if err != nil {
			return settings, err
		}
		settings.Topic = parsed
	}
	return settings, settings.Validate()
}

func (app *TrainerApp) openStore(ctx context.Context) (store.Store, error) {
	if app.store != nil {
		return app.store, nil
	}
	st, err := store.Open(ctx, storeConfig(app.config))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", app.config.Store.Backend, err)
	}
	app.store = st
	return st, nil
}

// outputResults formats data and writes it to the output file or stdout
func (app *TrainerApp) outputResults(data any) error {
	formatter := newFormatter(app.config.OutputFormat, app.config.Output.Precision)

	formattedData, err := formatter.Format(data, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(formattedData)
	}

	_, err = app.out.Write(formattedData)
	return err
}

func (app *TrainerApp) writeToFile(data []byte) error {
	dir := filepath.Dir(app.ctx.OutputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(app.ctx.OutputFile, data, 0644)
}

// setupLogging configures the process logger from the configuration
func setupLogging(ctx *Context, config *configs.Config) logging.Logger {
	level := config.LogLevel
	if config.Verbose {
		level = "debug"
	}
	if ctx.Quiet {
		level = "error"
	}

	logging.Configure(logging.Config{
		Level:  level,
		Format: config.LogFormat,
		Output: os.Stderr,
	})

	if ctx.Logger != nil {
		return ctx.Logger
	}
	return logging.WithFields(logging.Fields{"component": "trainer_app"})
}

// setupMetrics points the metric writer at the data directory
func (app *TrainerApp) setupMetrics() {
	if !app.config.Metrics.Enabled {
		return
	}

	if err := os.MkdirAll(app.config.DataDir, 0755); err != nil {
		app.logger.Error(err, "Failed creating metrics directory")
		return
	}

	err := rootlogger.Configure(logger.LogOptions{
		Out:          filepath.Join(app.config.DataDir, "metrics.log"),
		ReopenSignal: syscall.SIGHUP,
		Level:        logtypes.InfoLevel,
	})
	if err != nil {
		app.logger.Error(err, "Failed configuring log writer")
	}
}

// collectAttemptMetrics sends the scores of an attempt to rootcollector
func (app *TrainerApp) collectAttemptMetrics(result trainer.Result) {
	if !app.config.Metrics.Enabled {
		return
	}

	tags := append([]string(nil), app.config.Metrics.Tags...)
	tags = append(tags, "advice:"+string(result.Advice.Kind))
	prefix := app.config.Metrics.Prefix

	rootcollector.Metric(prefix+".attempt.score", int64(math.Round(result.Score)), tags)
	rootcollector.Metric(prefix+".attempt.raw_score", int64(math.Round(result.RawScore)), tags)
	rootcollector.Metric(prefix+".attempt.processing.milliseconds", result.ProcessingTime.Milliseconds(), tags)

	for _, rule := range result.Advice.Rules {
		ruleTags := append(append([]string(nil), tags...), "rule:"+rule)
		rootcollector.Metric(prefix+".advice.count", 1, ruleTags)
	}
}
