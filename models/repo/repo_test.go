// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo_test

import (
	"testing"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	"codeberg.org/forgeflux/starchart/models/unittest"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/optional"
	"codeberg.org/forgeflux/starchart/modules/util"
	"codeberg.org/forgeflux/starchart/modules/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const host = "https://git.example.org"

func TestNormalizeTopics(t *testing.T) {
	assert.Equal(t, []string{"spider", "starchart", "test"}, repo_model.NormalizeTopics([]string{"test", " starchart", "spider", "test", ""}))
	assert.Empty(t, repo_model.NormalizeTopics(nil))
}

func newRepo(t *testing.T, owner, name string, tags ...string) *repo_model.Repository {
	t.Helper()
	r, err := repo_model.NewRepository(host, owner, name, host+"/"+owner+"/"+name, optional.None[string](), optional.Some("a repository"), tags)
	require.NoError(t, err)
	return r
}

func TestRepositoryValidation(t *testing.T) {
	r := newRepo(t, "user1", "starchart", "b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, r.Topics)
	assert.False(t, r.WebsiteLink().Has())
	assert.Equal(t, "a repository", r.DescriptionText().Value())

	_, err := repo_model.NewRepository(host, "user1", "..", host+"/user1/x", optional.None[string](), optional.None[string](), nil)
	assert.True(t, validation.IsErrNotValid(err))
	_, err = repo_model.NewRepository(host, "", "x", host+"/user1/x", optional.None[string](), optional.None[string](), nil)
	assert.True(t, validation.IsErrNotValid(err))
	_, err = repo_model.NewRepository(host, "user1", "x", "not a link", optional.None[string](), optional.None[string](), nil)
	assert.True(t, validation.IsErrNotValid(err))
}

func TestCreateRepository(t *testing.T) {
	unittest.PrepareTestEnv(t)
	ctx := db.DefaultContext

	instance, err := forge.NewInstance(host, forge.TypeGitea)
	require.NoError(t, err)
	require.NoError(t, forge.CreateInstance(ctx, instance))

	err = repo_model.CreateRepository(ctx, newRepo(t, "user1", "starchart"))
	assert.True(t, repo_model.IsErrOwnerMissing(err))
	assert.ErrorIs(t, err, util.ErrDanglingReference)

	for _, name := range []string{"user1", "user2"} {
		u, err := user_model.NewUser(host, name, host+"/"+name, optional.None[string]())
		require.NoError(t, err)
		require.NoError(t, user_model.CreateUser(ctx, u))
	}

	require.NoError(t, repo_model.CreateRepository(ctx, newRepo(t, "user1", "starchart", "test", "starchart", "spider")))
	require.NoError(t, repo_model.CreateRepository(ctx, newRepo(t, "user1", "another")))
	require.NoError(t, repo_model.CreateRepository(ctx, newRepo(t, "user2", "starchart", "x")))

	err = repo_model.CreateRepository(ctx, newRepo(t, "user1", "starchart"))
	assert.True(t, repo_model.IsErrRepoAlreadyExist(err))
	assert.ErrorIs(t, err, util.ErrAlreadyExist)

	exist, err := repo_model.RepositoryExists(ctx, "starchart", "user1", host)
	require.NoError(t, err)
	assert.True(t, exist)

	r, err := repo_model.GetRepository(ctx, "user1", "starchart", host)
	require.NoError(t, err)
	assert.Equal(t, []string{"spider", "starchart", "test"}, r.Topics)

	repos, err := repo_model.ListRepositories(ctx, host)
	require.NoError(t, err)
	require.Len(t, repos, 3)
	assert.Equal(t, "another", repos[0].Name)
	assert.Empty(t, repos[0].Topics)
	assert.Equal(t, []string{"x"}, repos[2].Topics)

	require.NoError(t, repo_model.DeleteRepository(ctx, "user1", "starchart", host))
	err = repo_model.DeleteRepository(ctx, "user1", "starchart", host)
	assert.True(t, repo_model.IsErrRepoNotExist(err))
	assert.ErrorIs(t, err, util.ErrNotExist)

	require.NoError(t, repo_model.DeleteRepositoriesByOwner(ctx, "user1", host))
	exist, err = repo_model.RepositoryExists(ctx, "another", "user1", host)
	require.NoError(t, err)
	assert.False(t, exist)

	require.NoError(t, repo_model.DeleteRepositoriesByHostname(ctx, host))
	topics, err := db.GetEngine(ctx).Count(new(repo_model.Topic))
	require.NoError(t, err)
	assert.Zero(t, topics)
}
