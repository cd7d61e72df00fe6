// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package federate_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/util"
	"codeberg.org/forgeflux/starchart/services/federate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testForge = "https://test-gitea.example.com"

func newTestExporter(t *testing.T) *federate.Exporter {
	dir := t.TempDir()
	e, err := federate.NewExporter(filepath.Join(dir, "federation"), filepath.Join(dir, "bundles", "federation.tar.gz"))
	require.NoError(t, err)
	return e
}

func populate(t *testing.T, e federate.Federate) {
	ctx := context.Background()
	instance, err := forge.NewInstance(testForge, forge.TypeGitea)
	require.NoError(t, err)
	require.NoError(t, e.CreateForgeInstance(ctx, instance))

	for _, username := range []string{"user1", "user2"} {
		u, err := user_model.NewUser(testForge, username, testForge+"/"+username, optional.None[string]())
		require.NoError(t, err)
		require.NoError(t, e.CreateUser(ctx, u))
	}

	r, err := repo_model.NewRepository(testForge, "user1", "starchart", testForge+"/user1/starchart",
		optional.Some("https://starchart.example.com"), optional.None[string](), []string{"test", "starchart", "spider"})
	require.NoError(t, err)
	require.NoError(t, e.CreateRepository(ctx, r))
}

func TestExporter(t *testing.T) {
	e := newTestExporter(t)
	ctx := context.Background()

	exist, err := e.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.False(t, exist)

	populate(t, e)

	assert.FileExists(t, filepath.Join(e.Root(), "https", "test-gitea.example.com", "instance.yml"))
	assert.FileExists(t, filepath.Join(e.Root(), "https", "test-gitea.example.com", "users", "user1.yml"))
	assert.FileExists(t, filepath.Join(e.Root(), "https", "test-gitea.example.com", "repositories", "user1", "starchart.yml"))

	exist, err = e.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = e.UserExists(ctx, "user2", testForge)
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = e.RepositoryExists(ctx, "starchart", "user1", testForge)
	require.NoError(t, err)
	assert.True(t, exist)

	require.NoError(t, e.DeleteRepository(ctx, "user1", "starchart", testForge))
	exist, err = e.RepositoryExists(ctx, "starchart", "user1", testForge)
	require.NoError(t, err)
	assert.False(t, exist)
	require.NoError(t, e.DeleteRepository(ctx, "user1", "starchart", testForge))

	require.NoError(t, e.DeleteUser(ctx, "user1", testForge))
	exist, err = e.UserExists(ctx, "user1", testForge)
	require.NoError(t, err)
	assert.False(t, exist)

	require.NoError(t, e.DeleteForgeInstance(ctx, testForge))
	exist, err = e.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.False(t, exist)
	assert.NoDirExists(t, filepath.Join(e.Root(), "https", "test-gitea.example.com"))
}

func TestExporterSeparatesSchemes(t *testing.T) {
	e := newTestExporter(t)
	ctx := context.Background()
	populate(t, e)

	plain, err := forge.NewInstance("http://test-gitea.example.com", forge.TypeGitea)
	require.NoError(t, err)
	require.NoError(t, e.CreateForgeInstance(ctx, plain))
	assert.FileExists(t, filepath.Join(e.Root(), "http", "test-gitea.example.com", "instance.yml"))

	require.NoError(t, e.DeleteForgeInstance(ctx, "http://test-gitea.example.com"))
	exist, err := e.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = e.UserExists(ctx, "user1", testForge)
	require.NoError(t, err)
	assert.True(t, exist)
}

func TestNewExporterRejectsBundleInsideTree(t *testing.T) {
	dir := t.TempDir()
	_, err := federate.NewExporter(dir, filepath.Join(dir, "federation.tar.gz"))
	assert.ErrorIs(t, err, util.ErrInvalidArgument)
	_, err = federate.NewExporter(dir, dir)
	assert.ErrorIs(t, err, util.ErrInvalidArgument)
}

func TestCreateDirAndRemovePathAreIdempotent(t *testing.T) {
	e := newTestExporter(t)
	dir := filepath.Join(e.Root(), "a", "b")

	require.NoError(t, e.CreateDirIfNotExists(dir))
	require.NoError(t, e.CreateDirIfNotExists(dir))
	assert.DirExists(t, dir)

	require.NoError(t, e.RemovePath(dir))
	require.NoError(t, e.RemovePath(dir))
	assert.NoDirExists(t, dir)
}

func TestCreateDirOverFile(t *testing.T) {
	e := newTestExporter(t)
	file := filepath.Join(e.Root(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := e.CreateDirIfNotExists(filepath.Join(file, "dir"))
	assert.True(t, federate.IsErrIO(err), "%v", err)
	assert.ErrorIs(t, err, util.ErrIOFault)
}

func TestBundleRoundTrip(t *testing.T) {
	e := newTestExporter(t)
	populate(t, e)

	bundlePath, err := e.Bundle(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, bundlePath)

	entries, err := os.ReadDir(filepath.Dir(bundlePath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary archive left behind")

	snapshot, err := federate.ReadBundle(bundlePath)
	require.NoError(t, err)

	assert.Equal(t, []*federate.Instance{{Hostname: testForge, ForgeType: "gitea"}}, snapshot.Instances)
	assert.ElementsMatch(t, []*federate.User{
		{Username: "user1", Hostname: testForge, HTMLLink: testForge + "/user1"},
		{Username: "user2", Hostname: testForge, HTMLLink: testForge + "/user2"},
	}, snapshot.Users)
	assert.Equal(t, []*federate.Repository{{
		Name:     "starchart",
		Owner:    "user1",
		Hostname: testForge,
		HTMLLink: testForge + "/user1/starchart",
		Website:  "https://starchart.example.com",
		Tags:     []string{"spider", "starchart", "test"},
	}}, snapshot.Repositories)
}

func TestBundleEmptyTree(t *testing.T) {
	e := newTestExporter(t)
	bundlePath, err := e.Bundle(context.Background())
	require.NoError(t, err)

	snapshot, err := federate.ReadBundle(bundlePath)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Instances)
	assert.Empty(t, snapshot.Users)
}

func TestReadBundleMissing(t *testing.T) {
	_, err := federate.ReadBundle(filepath.Join(t.TempDir(), "missing.tar.gz"))
	assert.ErrorIs(t, err, util.ErrIOFault)
}
