// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is silent until Init is called, so libraries and tests can log freely.
var Log = zap.NewNop()

// Init replaces Log with a console logger at the given level
// ("debug", "info", "warn", "error").
func Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	Log = l
	return nil
}

// Sync flushes buffered entries; errors from syncing stderr are ignored.
func Sync() {
	_ = Log.Sync()
}
