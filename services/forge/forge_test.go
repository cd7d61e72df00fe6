// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	forge_model "codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/models/store"
	"codeberg.org/forgeflux/starchart/modules/metrics"
	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/util"
	"codeberg.org/forgeflux/starchart/services/federate"
	forge_service "codeberg.org/forgeflux/starchart/services/forge"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testForge = "https://test-gitea.example.com"

func newTestService(t *testing.T) (*forge_service.Service, store.Store, *federate.Exporter, *metrics.Metrics) {
	dir := t.TempDir()
	s, err := store.NewBoltStore(filepath.Join(dir, "starchart.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitializeStore(context.Background()))

	exporter, err := federate.NewExporter(filepath.Join(dir, "federation"), filepath.Join(dir, "federation.tar.gz"))
	require.NoError(t, err)
	m := metrics.New()
	return forge_service.NewService(s, exporter, m), s, exporter, m
}

func populate(t *testing.T, service *forge_service.Service) {
	ctx := context.Background()
	require.NoError(t, service.CreateForgeInstance(ctx, &store.CreateForge{Hostname: testForge + "/explore", ForgeType: forge_model.TypeGitea}))
	for _, username := range []string{"user1", "user2"} {
		require.NoError(t, service.AddUser(ctx, &store.AddUser{Hostname: testForge, Username: username, HTMLLink: testForge + "/" + username}))
	}
	require.NoError(t, service.CreateRepository(ctx, &store.AddRepository{
		Hostname: testForge,
		Owner:    "user1",
		Name:     "starchart",
		HTMLLink: testForge + "/user1/starchart",
		Tags:     []string{"test", "starchart", "spider"},
	}))
}

func TestMutationsReachExport(t *testing.T) {
	service, s, exporter, m := newTestService(t)
	ctx := context.Background()
	populate(t, service)

	exist, err := exporter.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = exporter.RepositoryExists(ctx, "starchart", "user1", testForge)
	require.NoError(t, err)
	assert.True(t, exist)

	require.NoError(t, service.DeleteRepository(ctx, "user1", "starchart", testForge))
	exist, err = exporter.RepositoryExists(ctx, "starchart", "user1", testForge)
	require.NoError(t, err)
	assert.False(t, exist)

	require.NoError(t, service.DeleteUser(ctx, "user2", testForge))
	exist, err = exporter.UserExists(ctx, "user2", testForge)
	require.NoError(t, err)
	assert.False(t, exist)

	require.NoError(t, service.DeleteForgeInstance(ctx, testForge))
	exist, err = exporter.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.False(t, exist)
	exist, err = s.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.False(t, exist)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ForgesCreated), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ForgesDeleted), 0)
}

func TestSameHostDifferentScheme(t *testing.T) {
	service, s, exporter, _ := newTestService(t)
	ctx := context.Background()
	const plainForge = "http://test-gitea.example.com"

	require.NoError(t, service.CreateForgeInstance(ctx, &store.CreateForge{Hostname: testForge, ForgeType: forge_model.TypeGitea}))
	require.NoError(t, service.CreateForgeInstance(ctx, &store.CreateForge{Hostname: plainForge, ForgeType: forge_model.TypeGitea}))
	require.NoError(t, service.AddUser(ctx, &store.AddUser{Hostname: testForge, Username: "alice", HTMLLink: testForge + "/alice"}))

	require.NoError(t, service.DeleteForgeInstance(ctx, plainForge))

	exist, err := s.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = s.UserExists(ctx, "alice", optional.Some(testForge))
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = exporter.ForgeExists(ctx, testForge)
	require.NoError(t, err)
	assert.True(t, exist)
	exist, err = exporter.UserExists(ctx, "alice", testForge)
	require.NoError(t, err)
	assert.True(t, exist)

	exist, err = exporter.ForgeExists(ctx, plainForge)
	require.NoError(t, err)
	assert.False(t, exist)
}

func TestStoreFailureSkipsExport(t *testing.T) {
	service, _, exporter, _ := newTestService(t)
	ctx := context.Background()

	err := service.AddUser(ctx, &store.AddUser{Hostname: testForge, Username: "user1", HTMLLink: testForge + "/user1"})
	assert.ErrorIs(t, err, util.ErrDanglingReference)
	exist, err := exporter.UserExists(ctx, "user1", testForge)
	require.NoError(t, err)
	assert.False(t, exist)
}

func TestRebuildExport(t *testing.T) {
	service, _, exporter, m := newTestService(t)
	ctx := context.Background()
	populate(t, service)

	// stale content and lost documents
	require.NoError(t, os.WriteFile(filepath.Join(exporter.Root(), "stale.yml"), []byte("x"), 0o644))
	require.NoError(t, exporter.DeleteUser(ctx, "user1", testForge))

	require.NoError(t, service.RebuildExport(ctx))
	assert.NoFileExists(t, filepath.Join(exporter.Root(), "stale.yml"))

	bundlePath, err := service.Bundle(ctx)
	require.NoError(t, err)
	snapshot, err := federate.ReadBundle(bundlePath)
	require.NoError(t, err)
	assert.Len(t, snapshot.Instances, 1)
	assert.Len(t, snapshot.Users, 2)
	require.Len(t, snapshot.Repositories, 1)
	assert.Equal(t, []string{"spider", "starchart", "test"}, snapshot.Repositories[0].Tags)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BundlesWritten), 0)
}

func TestCreateForgeWithOptionalFields(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()
	populate(t, service)

	require.NoError(t, service.AddUser(ctx, &store.AddUser{
		Hostname:     testForge,
		Username:     "user3",
		HTMLLink:     testForge + "/user3",
		ProfilePhoto: optional.Some(testForge + "/avatars/user3"),
	}))
	instances, err := service.ListForgeInstances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, testForge, instances[0].Hostname)
}
