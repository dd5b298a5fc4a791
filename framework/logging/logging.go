// Package logging installs the process-wide logger that node output is forwarded to.
package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv names the environment variable holding the log level, e.g. "debug".
const LevelEnv = "NODENV_LOG_LEVEL"

var (
	initOnce sync.Once
	initErr  error
)

// Init builds a logger at the level found in LevelEnv (info when unset) and installs it
// as zap's global logger, unless the process already installed one of its own. Only the
// first call has any effect; later calls return its result.
func Init() error {
	initOnce.Do(func() {
		initErr = installGlobal()
	})
	return initErr
}

func installGlobal() error {
	// zap's initial global logger drops everything, even fatal entries.
	if zap.L().Core().Enabled(zapcore.FatalLevel) {
		return nil
	}

	level, err := levelFromEnv()
	if err != nil {
		return err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

// Logger returns the global logger, initializing it first if needed.
// It falls back to the current global logger when initialization failed.
func Logger() *zap.Logger {
	_ = Init()
	return zap.L()
}

func levelFromEnv() (zapcore.Level, error) {
	raw := os.Getenv(LevelEnv)
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", LevelEnv, err)
	}
	return level, nil
}
