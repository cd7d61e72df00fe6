// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package migrations

import (
	"codeberg.org/forgeflux/starchart/modules/timeutil"

	"xorm.io/xorm"
)

type forgeTypeV1 struct {
	ID   int64  `xorm:"pk autoincr"`
	Name string `xorm:"UNIQUE NOT NULL VARCHAR(32)"`
}

func (forgeTypeV1) TableName() string {
	return "forge_type"
}

type forgeInstanceV1 struct {
	ID        int64              `xorm:"pk autoincr"`
	Hostname  string             `xorm:"UNIQUE NOT NULL VARCHAR(255)"`
	ForgeType string             `xorm:"VARCHAR(32) NOT NULL"`
	Created   timeutil.TimeStamp `xorm:"created"`
	Updated   timeutil.TimeStamp `xorm:"updated"`
}

func (forgeInstanceV1) TableName() string {
	return "forge_instance"
}

func CreateForgeTables(x *xorm.Engine) error {
	if err := x.Sync(new(forgeTypeV1)); err != nil {
		return err
	}
	return x.Sync(new(forgeInstanceV1))
}
