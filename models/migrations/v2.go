// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"codeberg.org/forgeflux/starchart/modules/timeutil"

	"xorm.io/xorm"
)

func CreateForgeUserTable(x *xorm.Engine) error {
	type ForgeUser struct {
		ID           int64              `xorm:"pk autoincr"`
		Hostname     string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
		Username     string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
		HTMLLink     string             `xorm:"html_link TEXT NOT NULL"`
		ProfilePhoto string             `xorm:"TEXT"`
		Created      timeutil.TimeStamp `xorm:"created"`
		Updated      timeutil.TimeStamp `xorm:"updated"`
	}

	return x.Sync(new(ForgeUser))
}
