// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"codeberg.org/forgeflux/starchart/modules/timeutil"

	"xorm.io/xorm"
)

func CreateRepositoryTables(x *xorm.Engine) error {
	type Repository struct {
		ID          int64              `xorm:"pk autoincr"`
		Hostname    string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
		Owner       string             `xorm:"UNIQUE(s) INDEX NOT NULL VARCHAR(255)"`
		Name        string             `xorm:"UNIQUE(s) NOT NULL VARCHAR(255)"`
		HTMLLink    string             `xorm:"html_link TEXT NOT NULL"`
		Website     string             `xorm:"TEXT"`
		Description string             `xorm:"TEXT"`
		Created     timeutil.TimeStamp `xorm:"created"`
		Updated     timeutil.TimeStamp `xorm:"updated"`
	}

	type RepoTopic struct {
		ID     int64  `xorm:"pk autoincr"`
		RepoID int64  `xorm:"UNIQUE(s) INDEX NOT NULL"`
		Name   string `xorm:"UNIQUE(s) NOT NULL VARCHAR(50)"`
	}

	if err := x.Sync(new(Repository)); err != nil {
		return err
	}
	return x.Sync(new(RepoTopic))
}
