// Package logging provides the diagnostics logger for conductor's
// fire-and-forget paths. Audit, bundle, and delegation writes must never
// surface failures into the primary pipeline; when something does go wrong
// the only acceptable destinations are nowhere (the default) or a debug log
// file, never stdout, which belongs to the hook protocol.
package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFile = "conductor.log"

var (
	mu     sync.Mutex
	logger = zap.NewNop()
)

// Configure installs the diagnostics logger. With debug disabled the logger
// stays a no-op and every diagnostic is dropped. With debug enabled,
// diagnostics are appended to <baseDir>/logs/conductor.log.
func Configure(baseDir string, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	if !debug {
		logger = zap.NewNop()
		return
	}

	dir := filepath.Join(baseDir, "logs")
	if err := os.MkdirAll(dir, 0700); err != nil {
		logger = zap.NewNop()
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		logger = zap.NewNop()
		return
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.DebugLevel)
	logger = zap.New(core)
}

// L returns the current diagnostics logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Dropped records a swallowed error from a fire-and-forget path.
func Dropped(component string, err error) {
	if err == nil {
		return
	}
	L().Debug("dropped error", zap.String("component", component), zap.Error(err))
}
