// Package logging builds the zap logger used across the scheduler and
// threads it through an explicit context.Context value instead of a
// package-level global, so no component has hidden access to ambient
// logging state.
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// Config selects where and how verbosely the logger writes.
type Config struct {
	// Component names the process emitting logs (e.g. "scheduler"),
	// used as the log file prefix.
	Component string
	// Dir is the directory log files are written to. Empty disables
	// file output entirely (console only) — used by tests and one-shot
	// CLI invocations that shouldn't litter the working directory.
	Dir string
	// ConsoleLevel and FileLevel independently bound verbosity of each
	// sink; FileLevel is ignored when Dir is empty.
	ConsoleLevel zapcore.Level
	FileLevel    zapcore.Level
}

// DefaultConfig returns the console-only configuration most CLI
// invocations want: info-level, human-readable, no file sink.
func DefaultConfig(component string) Config {
	return Config{
		Component:    component,
		ConsoleLevel: zapcore.InfoLevel,
		FileLevel:    zapcore.DebugLevel,
	}
}

// New builds a zap logger writing colored, human-readable lines to
// stdout and, when cfg.Dir is set, structured JSON lines to a
// timestamped file under it.
func New(cfg Config) (*zap.Logger, error) {
	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), cfg.ConsoleLevel),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		logFileName := filepath.Join(cfg.Dir, fmt.Sprintf("%s_%s.log", cfg.Component, timestamp))
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.TimeKey = "timestamp"
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoder := zapcore.NewJSONEncoder(fileEncoderConfig)

		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), cfg.FileLevel))
	}

	core := zapcore.NewTee(cores...)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger carried by ctx, or a no-op logger if
// none was attached.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return zap.NewNop()
}
