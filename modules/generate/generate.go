// Copyright 2016 The Gogs Authors. All rights reserved.
// Copyright 2016 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package generate

import (
	"codeberg.org/forgeflux/starchart/modules/util"
)

// SecretKeyLength is the length of a generated [verification] SECRET
const SecretKeyLength = 64

// NewSecretKey generates a new value for the [verification] SECRET setting
func NewSecretKey() (string, error) {
	return util.CryptoRandomString(SecretKeyLength)
}
