// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package log

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	l, err := NewLogger(INFO, "console")
	if err != nil {
		l = zap.NewNop()
	}
	SetLogger(l)
}

// NewLogger builds a zap logger writing to stderr. Mode "json" selects the
// production encoder, anything else the human readable console encoder.
func NewLogger(level Level, mode string) (*zap.Logger, error) {
	if level == NONE {
		return zap.NewNop(), nil
	}

	var cfg zap.Config
	switch mode {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
	default:
		return nil, fmt.Errorf("unknown log mode: %q", mode)
	}
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.DisableStacktrace = true
	return cfg.Build(zap.AddCallerSkip(1))
}

// SetLogger replaces the process wide logger
func SetLogger(l *zap.Logger) {
	current.Store(l.Sugar())
}

// GetLogger returns the process wide logger
func GetLogger() *zap.SugaredLogger {
	return current.Load()
}

// Sync flushes any buffered log entries
func Sync() {
	_ = current.Load().Sync()
}

// Trace records trace log
func Trace(format string, v ...any) {
	current.Load().Debugf(format, v...)
}

// Debug records debug log
func Debug(format string, v ...any) {
	current.Load().Debugf(format, v...)
}

// Info records info log
func Info(format string, v ...any) {
	current.Load().Infof(format, v...)
}

// Warn records warning log
func Warn(format string, v ...any) {
	current.Load().Warnf(format, v...)
}

// Error records error log
func Error(format string, v ...any) {
	current.Load().Errorf(format, v...)
}

// Fatal records fatal log and exit process
func Fatal(format string, v ...any) {
	current.Load().Fatalf(format, v...)
}

// IsDebug returns true if the current logger emits debug entries
func IsDebug() bool {
	return current.Load().Desugar().Core().Enabled(DEBUG.zapLevel())
}
