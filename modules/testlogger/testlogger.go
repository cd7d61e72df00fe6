// Copyright 2019 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package testlogger

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"codeberg.org/forgeflux/starchart/modules/log"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var SlowTest = 10 * time.Second

// PrintCurrentTest routes the process logger into the test output of t and
// returns a function restoring the previous logger. Tests running longer than
// SlowTest are reported.
func PrintCurrentTest(t testing.TB, skip ...int) func() {
	t.Helper()
	start := time.Now()
	actualSkip := 1
	if len(skip) > 0 {
		actualSkip = skip[0] + 1
	}
	_, filename, line, _ := runtime.Caller(actualSkip)

	previous := log.GetLogger()
	log.SetLogger(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCallerSkip(1))))
	log.Info("=== %s (%s:%d)", t.Name(), strings.TrimPrefix(filename, prefix()), line)

	return func() {
		took := time.Since(start)
		if took > SlowTest {
			log.Warn("+++ %s is a slow test (took %v)", t.Name(), took)
		}
		log.SetLogger(previous.Desugar())
	}
}

func prefix() string {
	_, filename, _, _ := runtime.Caller(0)
	return strings.TrimSuffix(filename, "modules/testlogger/testlogger.go")
}
