// Package logging provides a structured logging wrapper around Go's log/slog
// with support for rotated file output and execution timing helpers.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with convenience methods for kubecontexts
type Logger struct {
	logger  *slog.Logger
	enabled bool
}

// LogFormat represents the output format for logs
type LogFormat string

const (
	// FormatText outputs human-readable text logs
	FormatText LogFormat = "text"
	// FormatJSON outputs structured JSON logs
	FormatJSON LogFormat = "json"
)

// Config holds configuration for logger initialization
type Config struct {
	// FilePath is the path to the log file. Empty means Stderr decides.
	FilePath string
	// Stderr sends logs to standard error when FilePath is empty.
	// With neither set, logging is disabled (noop logger).
	Stderr bool
	// Level is the minimum log level (debug, info, warn, error)
	Level slog.Level
	// Format is the output format (text or json)
	Format LogFormat
	// MaxSizeMB is the maximum size in MB before rotation
	MaxSizeMB int
	// MaxBackups is the maximum number of old log files to keep
	MaxBackups int
}

var (
	mu sync.RWMutex
	// globalLogger is the package-level logger instance
	globalLogger *Logger
	// globalCloser releases the rotated file behind globalLogger
	globalCloser io.Closer
	// noopLogger is used when logging is disabled
	noopLogger = &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
)

// New builds a logger from config without touching the global one.
// The returned closer is nil unless a log file was opened.
func New(config Config) (*Logger, io.Closer) {
	var writer io.Writer
	var closer io.Closer

	switch {
	case config.FilePath != "":
		rotated := &lumberjack.Logger{
			Filename:   config.FilePath,
			MaxSize:    config.MaxSizeMB,
			MaxBackups: config.MaxBackups,
			Compress:   true,
		}
		writer, closer = rotated, rotated
	case config.Stderr:
		writer = os.Stderr
	default:
		return noopLogger, nil
	}

	opts := &slog.HandlerOptions{
		Level: config.Level,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{logger: slog.New(handler), enabled: true}, closer
}

// Init initializes the global logger with the given configuration.
func Init(config Config) error {
	logger, closer := New(config)

	mu.Lock()
	defer mu.Unlock()
	if globalCloser != nil {
		_ = globalCloser.Close()
	}
	globalLogger, globalCloser = logger, closer
	return nil
}

// Get returns the global logger instance.
// Returns a noop logger if Init was not called or logging is disabled.
func Get() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return noopLogger
	}
	return globalLogger
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return noopLogger
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// With returns a new Logger with the given key-value pairs added as context
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		logger:  l.logger.With(args...),
		enabled: l.enabled,
	}
}

// Component scopes the logger to a named component.
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// IsEnabled returns true if logging is enabled (not noop)
func (l *Logger) IsEnabled() bool {
	return l.enabled
}

// ParseLevel converts a string to slog.Level
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a string to LogFormat
func ParseFormat(format string) LogFormat {
	switch format {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Shutdown closes the rotated log file, if any, and resets to the noop logger.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	var err error
	if globalCloser != nil {
		err = globalCloser.Close()
	}
	globalLogger, globalCloser = nil, nil
	return err
}
