// Package logger provides a simple leveled logger for the application.
// It supports three levels: off (no output), normal (info/warn/error),
// and verbose (includes debug). Output is produced by zap; the logger is
// safe for concurrent use.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls the verbosity of the logger.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// Logger is a leveled printf-style logger backed by a zap SugaredLogger.
type Logger struct {
	atomic zap.AtomicLevel
	base   *zap.Logger
	sugar  *zap.SugaredLogger
}

// New creates a logger with the given level, writing to the given output.
// If out is nil, os.Stderr is used.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "T"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = ""

	atomic := zap.NewAtomicLevelAt(zapLevel(level))
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(out), atomic)
	base := zap.New(core)

	return &Logger{
		atomic: atomic,
		base:   base,
		sugar:  base.Sugar(),
	}
}

// zapLevel maps our three levels onto zap's. LevelOff sits above Fatal so
// nothing we emit passes the filter.
func zapLevel(l Level) zapcore.Level {
	switch l {
	case LevelOff:
		return zapcore.FatalLevel + 1
	case LevelVerbose:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.atomic.SetLevel(zapLevel(level))
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	switch l.atomic.Level() {
	case zapcore.DebugLevel:
		return LevelVerbose
	case zapcore.InfoLevel:
		return LevelNormal
	default:
		return LevelOff
	}
}

// Zap exposes the underlying zap logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger { return l.base }

// Debug logs a message at debug level (only visible in verbose mode).
func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Info logs a message at info level.
func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Warn logs a message at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

// Error logs a message at error level.
func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// Sync flushes buffered output.
func (l *Logger) Sync() error {
	return l.base.Sync()
}
