// Copyright 2021 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package unittest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/migrations"
	"codeberg.org/forgeflux/starchart/modules/setting"

	"xorm.io/builder"
	"xorm.io/xorm"
)

// TestOptions represents test options
type TestOptions struct {
	// SetUp runs after the test database is ready
	SetUp func() error
	// TearDown runs before the test database is removed
	TearDown func() error
}

// MainTest a reusable TestMain(..) function for unit tests that need to use a
// test database. Creates the test database, and sets necessary settings.
func MainTest(m *testing.M, testOpts ...*TestOptions) {
	os.Exit(mainTest(m, testOpts...))
}

func mainTest(m *testing.M, testOpts ...*TestOptions) int {
	tmpDataPath, err := os.MkdirTemp("", "starchart-data")
	if err != nil {
		fmt.Printf("Unable to create temporary data path %v\n", err)
		return 1
	}
	defer os.RemoveAll(tmpDataPath)

	setting.AppDataPath = tmpDataPath
	setting.Database.Type = setting.DatabaseSQLite3
	setting.Database.Path = filepath.Join(tmpDataPath, "starchart.db")
	setting.Database.Timeout = 5000
	setting.Database.MaxOpenConns = 4
	setting.Database.MaxIdleConns = 4
	setting.Federation.Dir = filepath.Join(tmpDataPath, "federation")
	setting.Federation.BundlePath = filepath.Join(tmpDataPath, "federation.tar.gz")

	if err := db.InitEngineWithMigration(context.Background(), migrations.Migrate); err != nil {
		fmt.Printf("Error initializing test database: %v\n", err)
		return 1
	}
	defer db.UnsetDefaultEngine()

	for _, options := range testOpts {
		if options.SetUp != nil {
			if err := options.SetUp(); err != nil {
				fmt.Printf("set up failed: %v\n", err)
				return 1
			}
		}
	}

	exitStatus := m.Run()

	for _, options := range testOpts {
		if options.TearDown != nil {
			if err := options.TearDown(); err != nil {
				fmt.Printf("tear down failed: %v\n", err)
				return 1
			}
		}
	}
	return exitStatus
}

// GetXORMEngine gets the XORM engine
func GetXORMEngine() *xorm.Engine {
	return db.DefaultContext.(*db.Context).Engine().(*xorm.Engine)
}

// PrepareTestDatabase empties every registered table and seeds the forge
// type registry again
func PrepareTestDatabase() error {
	e := GetXORMEngine()
	for _, bean := range db.Tables() {
		if _, err := e.Where(builder.Expr("1=1")).Delete(bean); err != nil {
			return err
		}
	}
	return db.RunInitFuncs()
}

// PrepareTestEnv prepares the environment for unit tests. Can only be called
// by tests that use the above MainTest(..) function.
func PrepareTestEnv(t testing.TB) {
	t.Helper()
	if err := PrepareTestDatabase(); err != nil {
		t.Fatalf("PrepareTestDatabase: %v", err)
	}
}
