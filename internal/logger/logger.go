package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Fields are structured key/value pairs attached to a log event.
type Fields = map[string]interface{}

// Logger wraps zerolog.Logger and provides structured logging capabilities.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a new Logger instance configured for the given environment.
// In development mode, it outputs pretty-printed colored logs.
// In production mode, it outputs JSON formatted logs.
func New(env string) *Logger {
	return NewWithLevel(env, "")
}

// NewWithLevel creates a Logger for env with an explicit minimum level
// ("debug", "info", "warn", "error"). An empty or unknown level falls back
// to debug in development and info elsewhere.
func NewWithLevel(env, level string) *Logger {
	var output io.Writer = os.Stdout
	if env == "development" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return newLogger(output, resolveLevel(env, level))
}

func newLogger(output io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &Logger{zlog: zlog}
}

func resolveLevel(env, level string) zerolog.Level {
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		return parsed
	}
	if env == "development" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields Fields) {
	withFields(l.zlog.Debug(), fields).Msg(msg)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields Fields) {
	withFields(l.zlog.Info(), fields).Msg(msg)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields Fields) {
	withFields(l.zlog.Warn(), fields).Msg(msg)
}

// Error logs an error message with an error and optional fields.
func (l *Logger) Error(msg string, err error, fields Fields) {
	withFields(l.zlog.Error().Err(err), fields).Msg(msg)
}

// Fatal logs a fatal message and exits the application.
func (l *Logger) Fatal(msg string, err error, fields Fields) {
	withFields(l.zlog.Fatal().Err(err), fields).Msg(msg)
}

func withFields(event *zerolog.Event, fields Fields) *zerolog.Event {
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	return event
}

// With creates a child logger with additional context fields.
func (l *Logger) With(fields Fields) *Logger {
	ctx := l.zlog.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithRequestID creates a child logger with a request ID field.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		zlog: l.zlog.With().Str("request_id", requestID).Logger(),
	}
}

// WithParcel creates a child logger scoped to a parcel and fiscal year.
// A zero year is left out.
func (l *Logger) WithParcel(parcelID int64, year int) *Logger {
	ctx := l.zlog.With().Int64("parcel_id", parcelID)
	if year != 0 {
		ctx = ctx.Int("fiscal_year", year)
	}
	return &Logger{zlog: ctx.Logger()}
}

// GetZerolog returns the underlying zerolog.Logger for advanced usage.
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}
