// Package logging centralizes logger configuration and resolution.
// This is an internal package and not part of the public API.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// LoggingConfig controls how the runtime logs.
type LoggingConfig struct {
	// Logger, when set, is used as-is and all other fields are ignored.
	Logger *slog.Logger

	// Handler, when set, backs a new logger.
	Handler slog.Handler

	// Level applies when neither Logger nor Handler is set.
	Level slog.Level

	// LogPrompts logs outbound prompts at debug level.
	LogPrompts bool

	// LogResponses logs full model responses at debug level.
	LogResponses bool

	// LogToolCalls logs tool invocations and results at debug level.
	LogToolCalls bool
}

// DefaultLoggingConfig returns the standard configuration: info level,
// prompts logged, responses and tool calls quiet.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      slog.LevelInfo,
		LogPrompts: true,
	}
}

// Silent returns a configuration that discards all output.
func (LoggingConfig) Silent() *LoggingConfig {
	return &LoggingConfig{
		Handler: slog.NewTextHandler(io.Discard, nil),
	}
}

// Verbose returns a configuration that logs everything at debug level.
func (LoggingConfig) Verbose() *LoggingConfig {
	return &LoggingConfig{
		Level:        slog.LevelDebug,
		LogPrompts:   true,
		LogResponses: true,
		LogToolCalls: true,
	}
}

// ResolveLogger materializes a logger from a config. Precedence: explicit
// Logger, then Handler, then a stderr text handler at the configured level.
func ResolveLogger(cfg LoggingConfig) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	if cfg.Handler != nil {
		return slog.New(cfg.Handler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level,
	}))
}
