// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"errors"
	"strings"
)

// DefaultTXTLabel is prepended to the forge host to form the TXT record name
const DefaultTXTLabel = "_starchart-challenge"

// Verification holds the [verification] section
var Verification = struct {
	Secret                  string `ini:"SECRET"`
	TXTLabel                string `ini:"TXT_LABEL"`
	DeleteChallengeOnVerify bool   `ini:"DELETE_CHALLENGE_ON_VERIFY"`
}{
	TXTLabel:                DefaultTXTLabel,
	DeleteChallengeOnVerify: true,
}

func loadVerificationFrom(rootCfg ConfigProvider) error {
	mustMapSetting(rootCfg, "verification", &Verification)

	Verification.TXTLabel = strings.Trim(strings.TrimSpace(Verification.TXTLabel), ".")
	if Verification.TXTLabel == "" {
		Verification.TXTLabel = DefaultTXTLabel
	}
	if len(Verification.Secret) > 0 && len(Verification.Secret) < 16 {
		return errors.New("SECRET must be at least 16 characters long")
	}
	return nil
}
