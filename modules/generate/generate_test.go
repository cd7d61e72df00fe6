// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecretKey(t *testing.T) {
	secret, err := NewSecretKey()
	require.NoError(t, err)
	assert.Len(t, secret, SecretKeyLength)
	assert.Regexp(t, "^[0-9A-Za-z]+$", secret)

	other, err := NewSecretKey()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}
