// Package logging builds the structured zap logger used by tool services.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error; empty disables logging.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Development switches to the human readable console encoder.
	Development bool `json:"development,omitempty" yaml:"development,omitempty"`
}

// Logger provides structured logging for tool operations.
type Logger struct {
	zap *zap.Logger
}

// New creates a Logger writing to stderr. A nil config or empty level
// yields a no-op logger.
func New(cfg *Config) (*Logger, error) {
	return NewWithWriter(cfg, zapcore.Lock(os.Stderr))
}

// NewWithWriter creates a Logger writing to w.
func NewWithWriter(cfg *Config, w zapcore.WriteSyncer) (*Logger, error) {
	if cfg == nil || cfg.Level == "" {
		return &Logger{zap: zap.NewNop()}, nil
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var encoder zapcore.Encoder
	if cfg.Development {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return &Logger{zap: zap.New(zapcore.NewCore(encoder, w, level))}, nil
}

// Wrap adapts an existing zap logger; nil yields a no-op logger.
func Wrap(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{zap: logger}
}

// Zap returns the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Close syncs the logger.
func (l *Logger) Close() error {
	return l.zap.Sync()
}

// ToolExecuted logs a tool execution with details.
func (l *Logger) ToolExecuted(toolName string, duration time.Duration, ok bool, err error) {
	fields := []zap.Field{
		zap.String("tool", toolName),
		zap.Duration("duration", duration),
		zap.Bool("ok", ok),
	}
	if err != nil {
		l.zap.Warn("tool executed", append(fields, zap.Error(err))...)
		return
	}
	l.zap.Info("tool executed", fields...)
}
