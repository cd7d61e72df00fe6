// Copyright 2023 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/log"

	"xorm.io/xorm"
	"xorm.io/xorm/names"
)

// StarchartVersion describes the version table. Should have only one row with id = 1.
type StarchartVersion struct {
	ID      int64 `xorm:"pk autoincr"`
	Version int64
}

type Migration struct {
	description string
	migrate     func(*xorm.Engine) error
}

// NewMigration creates a new migration.
func NewMigration(desc string, fn func(*xorm.Engine) error) *Migration {
	return &Migration{desc, fn}
}

// Description returns the migration's description
func (m *Migration) Description() string {
	return m.description
}

// This is a sequence of migrations.
// Add new migrations to the bottom of the list.
var migrations = []*Migration{
	// v0 -> v1
	NewMigration("Create forge_type and forge_instance tables", CreateForgeTables),
	// v1 -> v2
	NewMigration("Create forge_user table", CreateForgeUserTable),
	// v2 -> v3
	NewMigration("Create repository and repo_topic tables", CreateRepositoryTables),
	// v3 -> v4
	NewMigration("Create dns_challenge table", CreateDNSChallengeTable),
	// v4 -> v5
	NewMigration("Make dns_challenge hostname unique", MakeDNSChallengeHostnameUnique),
}

// GetCurrentDBVersion returns the current database version.
func GetCurrentDBVersion(x *xorm.Engine) (int64, error) {
	if err := x.Sync(new(StarchartVersion)); err != nil {
		return -1, fmt.Errorf("sync: %w", err)
	}

	currentVersion := &StarchartVersion{ID: 1}
	has, err := x.Get(currentVersion)
	if err != nil {
		return -1, fmt.Errorf("get: %w", err)
	}
	if !has {
		return -1, nil
	}
	return currentVersion.Version, nil
}

// ExpectedVersion returns the expected database version.
func ExpectedVersion() int64 {
	return int64(len(migrations))
}

// EnsureUpToDate will check if the database is at the correct version.
func EnsureUpToDate(x *xorm.Engine) error {
	currentDB, err := GetCurrentDBVersion(x)
	if err != nil {
		return err
	}

	if currentDB < 0 {
		return fmt.Errorf("database has not been initialized")
	}

	expected := ExpectedVersion()

	if currentDB != expected {
		return fmt.Errorf(`current database version %d is not equal to the expected version %d. Please run "starchart [--config /path/to/app.ini] migrate" to update the database version`, currentDB, expected)
	}

	return nil
}

// MigrateAndCheck migrates x and then confirms that it reached the expected
// version, so no command runs against a half migrated database.
func MigrateAndCheck(x *xorm.Engine) error {
	if err := Migrate(x); err != nil {
		return err
	}
	return EnsureUpToDate(x)
}

// Migrate the database to current version.
func Migrate(x *xorm.Engine) error {
	x.SetMapper(names.GonicMapper{})
	if err := x.Sync(new(StarchartVersion)); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	currentVersion := &StarchartVersion{ID: 1}
	has, err := x.Get(currentVersion)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	} else if !has {
		// If the version record does not exist we think
		// it is a fresh installation and we can skip all migrations.
		currentVersion.ID = 0
		currentVersion.Version = ExpectedVersion()

		if _, err = x.InsertOne(currentVersion); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}

	v := currentVersion.Version

	// Downgrading the database version is not supported
	if v > ExpectedVersion() {
		return fmt.Errorf("your database (migration version: %d) is for a newer version of starchart, you cannot use it with this release (%d)", v, ExpectedVersion())
	}

	for i, m := range migrations[v:] {
		log.Info("Migration[%d]: %s", v+int64(i), m.description)
		// Reset the mapper between each migration - migrations are not supposed to depend on each other
		x.SetMapper(names.GonicMapper{})
		if err = m.migrate(x); err != nil {
			return fmt.Errorf("migration[%d]: %s failed: %w", v+int64(i), m.description, err)
		}
		currentVersion.Version = v + int64(i) + 1
		if _, err = x.ID(1).Update(currentVersion); err != nil {
			return err
		}
	}

	return nil
}
