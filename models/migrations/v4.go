// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"codeberg.org/forgeflux/starchart/modules/timeutil"

	"xorm.io/xorm"
)

func CreateDNSChallengeTable(x *xorm.Engine) error {
	type DNSChallenge struct {
		ID       int64              `xorm:"pk autoincr"`
		Key      string             `xorm:"'challenge_key' UNIQUE NOT NULL VARCHAR(64)"`
		Value    string             `xorm:"NOT NULL VARCHAR(64)"`
		Hostname string             `xorm:"INDEX NOT NULL VARCHAR(255)"`
		Created  timeutil.TimeStamp `xorm:"created"`
	}

	return x.Sync(new(DNSChallenge))
}
