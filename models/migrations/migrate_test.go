// Copyright 2023 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnsureUpToDate tests the behavior of EnsureUpToDate.
func TestEnsureUpToDate(t *testing.T) {
	x := prepareTestEnv(t, new(StarchartVersion))

	// Ensure error if there's no row in the version table.
	err := EnsureUpToDate(x)
	require.Error(t, err)

	// Insert 'good' version row.
	_, err = x.InsertOne(&StarchartVersion{ID: 1, Version: ExpectedVersion()})
	require.NoError(t, err)

	err = EnsureUpToDate(x)
	require.NoError(t, err)

	// Modify the version to have a lower version.
	_, err = x.Exec("UPDATE `starchart_version` SET version = ? WHERE id = 1", ExpectedVersion()-1)
	require.NoError(t, err)

	err = EnsureUpToDate(x)
	require.Error(t, err)
}

func TestMigrateFreshDatabase(t *testing.T) {
	x := prepareTestEnv(t)

	require.NoError(t, Migrate(x))
	version, err := GetCurrentDBVersion(x)
	require.NoError(t, err)
	assert.Equal(t, ExpectedVersion(), version)

	// running again is a no-op
	require.NoError(t, Migrate(x))
	require.NoError(t, EnsureUpToDate(x))
}

func TestMigrateRefusesNewerDatabase(t *testing.T) {
	x := prepareTestEnv(t, new(StarchartVersion))
	_, err := x.InsertOne(&StarchartVersion{ID: 1, Version: ExpectedVersion() + 1})
	require.NoError(t, err)

	assert.Error(t, Migrate(x))
	assert.Error(t, MigrateAndCheck(x))
}

func TestMigrateAndCheck(t *testing.T) {
	x := prepareTestEnv(t)
	require.Error(t, EnsureUpToDate(x))

	require.NoError(t, MigrateAndCheck(x))
	version, err := GetCurrentDBVersion(x)
	require.NoError(t, err)
	assert.Equal(t, ExpectedVersion(), version)
}

func TestMigrateFromFirstVersion(t *testing.T) {
	x := prepareTestEnv(t, new(StarchartVersion))
	_, err := x.InsertOne(&StarchartVersion{ID: 1, Version: 0})
	require.NoError(t, err)

	require.NoError(t, Migrate(x))
	require.NoError(t, EnsureUpToDate(x))

	for _, table := range []string{"forge_type", "forge_instance", "forge_user", "repository", "repo_topic", "dns_challenge"} {
		exist, err := x.IsTableExist(table)
		require.NoError(t, err)
		assert.True(t, exist, table)
	}
}

func TestMakeDNSChallengeHostnameUnique(t *testing.T) {
	x := prepareTestEnv(t)
	require.NoError(t, CreateDNSChallengeTable(x))

	_, err := x.Exec("INSERT INTO dns_challenge (challenge_key, value, hostname) VALUES ('k1', 'v1', 'https://a.example'), ('k2', 'v2', 'https://a.example'), ('k3', 'v3', 'https://b.example')")
	require.NoError(t, err)

	require.NoError(t, MakeDNSChallengeHostnameUnique(x))

	var keys []string
	require.NoError(t, x.SQL("SELECT challenge_key FROM dns_challenge ORDER BY id").Find(&keys))
	assert.Equal(t, []string{"k1", "k3"}, keys)

	_, err = x.Exec("INSERT INTO dns_challenge (challenge_key, value, hostname) VALUES ('k4', 'v4', 'https://b.example')")
	assert.Error(t, err)
}
