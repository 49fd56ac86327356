// Package slogger provides the structured logging facade used across
// stepcheck components. Components accept a Logger in their options and
// default to the dev-null implementation, so logging never becomes ambient
// global state.
package slogger

import (
	"context"
	"strings"
)

// DefaultLogger is used when a component is constructed without a logger.
var DefaultLogger = NewDevNullLogger()

// Logger is a minimal structured logging interface compatible with slog
// style key-value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)

	Info(msg string, keysAndValues ...any)

	Warn(msg string, keysAndValues ...any)

	Error(msg string, keysAndValues ...any)

	// With returns a Logger that includes the given key-value pairs on
	// every message.
	With(keysAndValues ...any) Logger
}

type contextKey string

const loggerKey contextKey = "stepcheck.logger"

// WithLogger returns a new context carrying the given logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// Ctx returns the logger stored in the context, or a default one.
func Ctx(ctx context.Context) Logger {
	if ctx == nil {
		return New(DefaultLogLevel)
	}
	logger, ok := ctx.Value(loggerKey).(Logger)
	if !ok {
		return New(DefaultLogLevel)
	}
	return logger
}

// LevelFromString converts a string to a LogLevel.
func LevelFromString(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return DefaultLogLevel
	}
}
