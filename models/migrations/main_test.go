// Copyright 2023 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"fmt"
	"path/filepath"
	"testing"

	"codeberg.org/forgeflux/starchart/modules/testlogger"

	"github.com/stretchr/testify/require"
	"xorm.io/xorm"
	"xorm.io/xorm/names"

	_ "github.com/mattn/go-sqlite3"
)

// prepareTestEnv returns an engine on an empty sqlite database with the given
// models synced
func prepareTestEnv(t *testing.T, syncModels ...any) *xorm.Engine {
	t.Helper()
	t.Cleanup(testlogger.PrintCurrentTest(t, 1))

	path := filepath.Join(t.TempDir(), "migrations.db")
	x, err := xorm.NewEngine("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=500&_txlock=immediate", path))
	require.NoError(t, err)
	x.SetMapper(names.GonicMapper{})
	t.Cleanup(func() { _ = x.Close() })

	if len(syncModels) > 0 {
		require.NoError(t, x.Sync(syncModels...))
	}
	return x
}
