// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db_test

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/models/unittest"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/optional"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const txForge = "https://tx.example.org"

func registerForgeWithUser(ctx context.Context, t *testing.T) {
	t.Helper()
	instance, err := forge.NewInstance(txForge, forge.TypeGitea)
	require.NoError(t, err)
	require.NoError(t, forge.CreateInstance(ctx, instance))

	u, err := user_model.NewUser(txForge, "user1", txForge+"/user1", optional.None[string]())
	require.NoError(t, err)
	require.NoError(t, user_model.CreateUser(ctx, u))
}

func assertRegistered(t *testing.T, forgeWanted, userWanted bool) {
	t.Helper()
	exist, err := forge.InstanceExists(db.DefaultContext, txForge)
	require.NoError(t, err)
	assert.Equal(t, forgeWanted, exist)
	exist, err = user_model.UserExists(db.DefaultContext, "user1", optional.Some(txForge))
	require.NoError(t, err)
	assert.Equal(t, userWanted, exist)
}

func TestNestedWritesJoinOuterTransaction(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	assert.False(t, db.InTransaction(db.DefaultContext))

	failure := errors.New("abort")
	err := db.WithTx(db.DefaultContext, func(ctx context.Context) error {
		assert.True(t, db.InTransaction(ctx))
		registerForgeWithUser(ctx, t)

		// visible inside the transaction
		exist, err := user_model.UserExists(ctx, "user1", optional.Some(txForge))
		require.NoError(t, err)
		assert.True(t, exist)
		return failure
	})
	assert.ErrorIs(t, err, failure)

	// the commits of CreateInstance and CreateUser did not end the outer transaction
	assertRegistered(t, false, false)
}

func TestOuterCommitterClose(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())

	ctx, committer, err := db.TxContext(db.DefaultContext)
	require.NoError(t, err)
	engine := db.GetEngine(ctx)

	inner, innerCommitter, err := db.TxContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine, db.GetEngine(inner))
	registerForgeWithUser(inner, t)
	require.NoError(t, innerCommitter.Commit())

	require.NoError(t, committer.Close())
	assertRegistered(t, false, false)
}

func TestOuterCommitterCommit(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())

	ctx, committer, err := db.TxContext(db.DefaultContext)
	require.NoError(t, err)
	defer committer.Close()
	registerForgeWithUser(ctx, t)
	require.NoError(t, committer.Commit())

	assertRegistered(t, true, true)
}

func TestCascadeRollsBackAsOne(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	registerForgeWithUser(db.DefaultContext, t)

	failure := errors.New("abort")
	err := db.WithTx(db.DefaultContext, func(ctx context.Context) error {
		n, err := user_model.DeleteUsersByHostname(ctx, txForge)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		require.NoError(t, forge.DeleteInstance(ctx, txForge))
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assertRegistered(t, true, true)

	// a failed standalone write leaves no transaction behind
	u, err := user_model.NewUser("https://missing.example.org", "user2", "https://missing.example.org/user2", optional.None[string]())
	require.NoError(t, err)
	err = user_model.CreateUser(db.DefaultContext, u)
	assert.True(t, user_model.IsErrForgeMissing(err), "%v", err)
	assert.False(t, db.InTransaction(db.DefaultContext))
}
