package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value context attached to a log entry
type Fields map[string]any

// Logger is the structured logging surface used throughout the trainer
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

// Config controls the process-wide logger
type Config struct {
	Level  string
	Format string // text or json
	Output io.Writer
}

var (
	rootMu sync.RWMutex
	root   = newRoot(Config{Level: "info", Format: "text"})
)

func newRoot(cfg Config) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if cfg.Output != nil {
		l.SetOutput(cfg.Output)
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return l
}

// Configure replaces the process-wide logger settings
func Configure(cfg Config) {
	l := newRoot(cfg)

	rootMu.Lock()
	root = l
	rootMu.Unlock()
}

func current() *logrus.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// NewDefaultLogger returns a logger bound to the process-wide configuration
func NewDefaultLogger() Logger {
	return &entryLogger{entry: logrus.NewEntry(current())}
}

// WithFields returns a default logger carrying the given fields
func WithFields(fields Fields) Logger {
	return NewDefaultLogger().WithFields(fields)
}

// Error logs an error on the default logger
func Error(err error, msg string, fields ...Fields) {
	NewDefaultLogger().Error(err, msg, fields...)
}

type entryLogger struct {
	entry *logrus.Entry
}

func (l *entryLogger) with(fields []Fields) *logrus.Entry {
	entry := l.entry
	for _, f := range fields {
		if len(f) > 0 {
			entry = entry.WithFields(logrus.Fields(f))
		}
	}
	return entry
}

func (l *entryLogger) Debug(msg string, fields ...Fields) {
	l.with(fields).Debug(msg)
}

func (l *entryLogger) Info(msg string, fields ...Fields) {
	l.with(fields).Info(msg)
}

func (l *entryLogger) Warn(msg string, fields ...Fields) {
	l.with(fields).Warn(msg)
}

func (l *entryLogger) Error(err error, msg string, fields ...Fields) {
	entry := l.with(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (l *entryLogger) WithFields(fields Fields) Logger {
	return &entryLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}
