// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge

import (
	"context"
	"fmt"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/modules/log"

	"xorm.io/builder"
)

// Type is the software a forge instance runs
type Type string

const (
	TypeGitea Type = "gitea"
)

// KnownTypes is the registry seeded on store initialization.
// A new forge software needs a constant above and an entry here.
var KnownTypes = []Type{
	TypeGitea,
}

// IsKnown reports whether t is part of KnownTypes
func (t Type) IsKnown() bool {
	for _, known := range KnownTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t Type) String() string {
	return string(t)
}

// TypeRecord is a seeded row of the forge type registry
type TypeRecord struct {
	ID   int64 `xorm:"pk autoincr"`
	Name Type  `xorm:"UNIQUE NOT NULL VARCHAR(32)"`
}

// TableName returns the table name of the forge type registry
func (TypeRecord) TableName() string {
	return "forge_type"
}

func init() {
	db.RegisterModel(new(TypeRecord), func() error {
		return SeedTypes(db.DefaultContext)
	})
}

// SeedTypes inserts every entry of KnownTypes that is not stored yet
func SeedTypes(ctx context.Context) error {
	for _, t := range KnownTypes {
		exist, err := TypeExists(ctx, t)
		if err != nil {
			return err
		}
		if exist {
			continue
		}
		if err := db.Insert(ctx, &TypeRecord{Name: t}); err != nil {
			if db.IsErrDuplicateKey(err) {
				// seeded by a concurrent initialization
				continue
			}
			return fmt.Errorf("seed forge type %s: %w", t, err)
		}
		log.Info("Seeded forge type %s", t)
	}
	return nil
}

// TypeExists reports whether t was seeded
func TypeExists(ctx context.Context, t Type) (bool, error) {
	return db.Exist[TypeRecord](ctx, builder.Eq{"name": t})
}
