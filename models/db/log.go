// Copyright 2019 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"fmt"
	"sync/atomic"

	"codeberg.org/forgeflux/starchart/modules/log"

	xormlog "xorm.io/xorm/log"
)

// XORMLogBridge a logger bridge from Logger to xorm
type XORMLogBridge struct {
	showSQL atomic.Bool
}

// NewXORMLogger inits a log bridge for xorm
func NewXORMLogger(showSQL bool) xormlog.Logger {
	l := &XORMLogBridge{}
	l.showSQL.Store(showSQL)
	return l
}

// Debug show debug log
func (l *XORMLogBridge) Debug(v ...any) {
	log.Debug("%s", fmt.Sprint(v...))
}

// Debugf show debug log
func (l *XORMLogBridge) Debugf(format string, v ...any) {
	log.Debug(format, v...)
}

// Error show error log
func (l *XORMLogBridge) Error(v ...any) {
	log.Error("%s", fmt.Sprint(v...))
}

// Errorf show error log
func (l *XORMLogBridge) Errorf(format string, v ...any) {
	log.Error(format, v...)
}

// Info show information level log
func (l *XORMLogBridge) Info(v ...any) {
	log.Info("%s", fmt.Sprint(v...))
}

// Infof show information level log
func (l *XORMLogBridge) Infof(format string, v ...any) {
	log.Info(format, v...)
}

// Warn show warning log
func (l *XORMLogBridge) Warn(v ...any) {
	log.Warn("%s", fmt.Sprint(v...))
}

// Warnf show warning log
func (l *XORMLogBridge) Warnf(format string, v ...any) {
	log.Warn(format, v...)
}

// Level get logger level
func (l *XORMLogBridge) Level() xormlog.LogLevel {
	if log.IsDebug() {
		return xormlog.LOG_DEBUG
	}
	return xormlog.LOG_INFO
}

// SetLevel set the logger level
func (l *XORMLogBridge) SetLevel(lvl xormlog.LogLevel) {
}

// ShowSQL set if record SQL
func (l *XORMLogBridge) ShowSQL(show ...bool) {
	if len(show) == 0 {
		show = []bool{true}
	}
	l.showSQL.Store(show[0])
}

// IsShowSQL if record SQL
func (l *XORMLogBridge) IsShowSQL() bool {
	return l.showSQL.Load()
}
