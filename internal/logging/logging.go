// Package logging builds the zap logger used for diagnostics.
// User-facing output does not go through it.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	maxSizeMB  = 15
	maxBackups = 3
	maxAgeDays = 28
)

// Config selects the level and destination of diagnostics.
type Config struct {
	Verbose bool      // debug level instead of info
	File    string    // rotating log file; empty logs to Stderr
	Stderr  io.Writer // defaults to os.Stderr
}

// New builds a JSON logger with the production encoder.
// The returned cleanup flushes the logger and closes the log file, if any.
func New(cfg Config) (*zap.Logger, func() error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	var (
		sink   zapcore.WriteSyncer
		closer io.Closer
	)
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		sink, closer = zapcore.AddSync(file), file
	} else {
		w := cfg.Stderr
		if w == nil {
			w = os.Stderr
		}
		sink = zapcore.Lock(zapcore.AddSync(w))
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level), zap.AddCaller())

	cleanup := func() error {
		// Sync on a terminal returns EINVAL; only file sinks report errors.
		syncErr := logger.Sync()
		if closer == nil {
			return nil
		}
		if err := closer.Close(); err != nil {
			return err
		}
		return syncErr
	}
	return logger, cleanup
}
