// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"codeberg.org/forgeflux/starchart/modules/timeutil"

	"xorm.io/xorm"
)

// MakeDNSChallengeHostnameUnique keeps the oldest challenge of every hostname
// and turns the hostname index into a unique one
func MakeDNSChallengeHostnameUnique(x *xorm.Engine) error {
	type DNSChallenge struct {
		ID       int64              `xorm:"pk autoincr"`
		Key      string             `xorm:"'challenge_key' UNIQUE NOT NULL VARCHAR(64)"`
		Value    string             `xorm:"NOT NULL VARCHAR(64)"`
		Hostname string             `xorm:"UNIQUE NOT NULL VARCHAR(255)"`
		Created  timeutil.TimeStamp `xorm:"created"`
	}

	sess := x.NewSession()
	defer sess.Close()
	if err := sess.Begin(); err != nil {
		return err
	}

	var duplicates []int64
	if err := sess.Table("dns_challenge").Cols("id").
		Where("id NOT IN (SELECT min_id FROM (SELECT MIN(id) AS min_id FROM dns_challenge GROUP BY hostname) AS keep)").
		Find(&duplicates); err != nil {
		return err
	}
	if len(duplicates) > 0 {
		if _, err := sess.In("id", duplicates).Delete(new(DNSChallenge)); err != nil {
			return err
		}
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	return x.Sync(new(DNSChallenge))
}
