// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db_test

import (
	"context"
	"errors"
	"testing"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/unittest"
	"codeberg.org/forgeflux/starchart/modules/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UniqueName struct {
	ID   int64  `xorm:"pk autoincr"`
	Name string `xorm:"UNIQUE NOT NULL"`
}

func TestIsErrDuplicateKey(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	e := unittest.GetXORMEngine()
	require.NoError(t, e.Sync(new(UniqueName)))
	_, err := e.Where("1=1").Delete(new(UniqueName))
	require.NoError(t, err)

	require.NoError(t, db.Insert(db.DefaultContext, &UniqueName{Name: "dup"}))
	err = db.Insert(db.DefaultContext, &UniqueName{Name: "dup"})
	require.Error(t, err)
	assert.True(t, db.IsErrDuplicateKey(err))

	assert.False(t, db.IsErrDuplicateKey(errors.New("other")))
	assert.False(t, db.IsErrDuplicateKey(nil))
}

func TestFault(t *testing.T) {
	require.NoError(t, db.Fault("noop", nil))

	notExist := util.NewNotExistErrorf("gone")
	assert.Equal(t, notExist, db.Fault("get", notExist))

	engineErr := errors.New("disk I/O error")
	err := db.Fault("insert", engineErr)
	assert.True(t, db.IsErrStoreFault(err))
	assert.ErrorIs(t, err, util.ErrStoreFault)
	assert.ErrorIs(t, err, engineErr)
	assert.Equal(t, "store fault [op: insert]: disk I/O error", err.Error())
}

func TestWithTxRollback(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	require.NoError(t, unittest.GetXORMEngine().Sync(new(UniqueName)))

	failure := errors.New("abort")
	err := db.WithTx(db.DefaultContext, func(ctx context.Context) error {
		require.NoError(t, db.Insert(ctx, &UniqueName{Name: "rolled-back"}))
		return failure
	})
	assert.ErrorIs(t, err, failure)

	exist, err := db.GetEngine(db.DefaultContext).Where("name = ?", "rolled-back").Exist(new(UniqueName))
	require.NoError(t, err)
	assert.False(t, exist)
}
