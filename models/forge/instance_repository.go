// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge

import (
	"context"

	"codeberg.org/forgeflux/starchart/models/db"

	"xorm.io/builder"
)

func init() {
	db.RegisterModel(new(Instance))
}

// CreateInstance stores a new forge instance. The forge type has to be seeded
// and the hostname must not be registered yet.
func CreateInstance(ctx context.Context, instance *Instance) error {
	return db.WithTx(ctx, func(ctx context.Context) error {
		known, err := TypeExists(ctx, instance.ForgeType)
		if err != nil {
			return err
		} else if !known {
			return ErrTypeNotExist{Type: instance.ForgeType}
		}

		exist, err := InstanceExists(ctx, instance.Hostname)
		if err != nil {
			return err
		} else if exist {
			return ErrInstanceAlreadyExist{Hostname: instance.Hostname}
		}

		if err := db.Insert(ctx, instance); err != nil {
			if db.IsErrDuplicateKey(err) {
				return ErrInstanceAlreadyExist{Hostname: instance.Hostname}
			}
			return err
		}
		return nil
	})
}

// InstanceExists reports whether the hostname is registered
func InstanceExists(ctx context.Context, host string) (bool, error) {
	return db.Exist[Instance](ctx, builder.Eq{"hostname": host})
}

// GetInstance returns the forge instance registered for the hostname
func GetInstance(ctx context.Context, host string) (*Instance, error) {
	instance, has, err := db.Get[Instance](ctx, builder.Eq{"hostname": host})
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrInstanceNotExist{Hostname: host}
	}
	return instance, nil
}

// ListInstances returns every forge instance ordered by hostname
func ListInstances(ctx context.Context) ([]*Instance, error) {
	instances := make([]*Instance, 0, 10)
	if err := db.GetEngine(ctx).OrderBy("hostname").Find(&instances); err != nil {
		return nil, err
	}
	return instances, nil
}

// DeleteInstance removes the instance row only, callers remove the dependent
// users and repositories in the same transaction
func DeleteInstance(ctx context.Context, host string) error {
	n, err := db.GetEngine(ctx).Where(builder.Eq{"hostname": host}).Delete(new(Instance))
	if err != nil {
		return err
	} else if n == 0 {
		return ErrInstanceNotExist{Hostname: host}
	}
	return nil
}
