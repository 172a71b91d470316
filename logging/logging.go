// Package logging is the small structured logger shared by the decoder and
// the analyzers. Lines are leveled and carry sorted key=value fields.
package logging

import (
	"context"
	"fmt"
	"strings"
)

// Level orders log severity
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config or flag value ("debug", "warn", ...) to a Level.
// An empty name means info.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %q", name)
	}
}

// Fields are structured key/value pairs attached to a line
type Fields map[string]any

// Logger is what the analysis packages log through
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)

	// WithFields returns a logger that adds fields to every line
	WithFields(fields Fields) Logger

	// WithContext returns a logger carrying the fields stored in ctx
	WithContext(ctx context.Context) Logger
}

type fieldsKey struct{}

// ContextWithFields attaches fields to ctx, merged over any already there.
// The assessor uses it to tag every line of one assessment with its ID.
func ContextWithFields(ctx context.Context, fields Fields) context.Context {
	merged := make(Fields)
	if existing, ok := ctx.Value(fieldsKey{}).(Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FieldsFromContext returns the fields attached with ContextWithFields
func FieldsFromContext(ctx context.Context) (Fields, bool) {
	if ctx == nil {
		return nil, false
	}
	fields, ok := ctx.Value(fieldsKey{}).(Fields)
	return fields, ok
}

var global Logger = NewDefaultLogger()

// SetGlobalLogger replaces the package logger. nil silences logging.
// Analyzers capture the global logger when they are constructed, so set it
// before building them.
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		logger = &NoOpLogger{}
	}
	global = logger
}

// GetGlobalLogger returns the current package logger
func GetGlobalLogger() Logger {
	return global
}

func Debug(msg string, fields ...Fields) { global.Debug(msg, fields...) }

func Info(msg string, fields ...Fields) { global.Info(msg, fields...) }

func Warn(msg string, fields ...Fields) { global.Warn(msg, fields...) }

func Error(err error, msg string, fields ...Fields) { global.Error(err, msg, fields...) }

// WithFields derives a component logger from the global one
func WithFields(fields Fields) Logger {
	return global.WithFields(fields)
}
