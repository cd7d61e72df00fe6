// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge_test

import (
	"testing"

	"codeberg.org/forgeflux/starchart/models/unittest"
)

func TestMain(m *testing.M) {
	unittest.MainTest(m)
}
