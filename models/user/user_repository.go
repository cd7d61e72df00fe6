// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package user

import (
	"context"

	"codeberg.org/forgeflux/starchart/models/db"
	"codeberg.org/forgeflux/starchart/models/forge"
	"codeberg.org/forgeflux/starchart/modules/optional"

	"xorm.io/builder"
)

func init() {
	db.RegisterModel(new(User))
}

// CreateUser stores a user under an existing forge instance
func CreateUser(ctx context.Context, u *User) error {
	ctx, committer, err := db.TxContext(ctx)
	if err != nil {
		return err
	}
	defer committer.Close()

	hasForge, err := forge.InstanceExists(ctx, u.Hostname)
	if err != nil {
		return err
	} else if !hasForge {
		return ErrForgeMissing{Hostname: u.Hostname, Username: u.Username}
	}

	exist, err := UserExists(ctx, u.Username, optional.Some(u.Hostname))
	if err != nil {
		return err
	} else if exist {
		return ErrUserAlreadyExist{Hostname: u.Hostname, Username: u.Username}
	}

	if err := db.Insert(ctx, u); err != nil {
		if db.IsErrDuplicateKey(err) {
			return ErrUserAlreadyExist{Hostname: u.Hostname, Username: u.Username}
		}
		return err
	}
	return committer.Commit()
}

// UserExists reports whether username is known. Without a hostname every
// forge is searched.
func UserExists(ctx context.Context, username string, host optional.Option[string]) (bool, error) {
	cond := builder.NewCond().And(builder.Eq{"username": username})
	if host.Has() {
		cond = cond.And(builder.Eq{"hostname": host.Value()})
	}
	return db.Exist[User](ctx, cond)
}

// GetUser returns the user registered under the hostname
func GetUser(ctx context.Context, username, host string) (*User, error) {
	u, has, err := db.Get[User](ctx, builder.Eq{"username": username, "hostname": host})
	if err != nil {
		return nil, err
	} else if !has {
		return nil, ErrUserNotExist{Hostname: host, Username: username}
	}
	return u, nil
}

// ListUsers returns the users of a forge instance ordered by username
func ListUsers(ctx context.Context, host string) ([]*User, error) {
	users := make([]*User, 0, 10)
	if err := db.GetEngine(ctx).Where(builder.Eq{"hostname": host}).OrderBy("username").Find(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes the user row only, the caller removes the user's
// repositories in the same transaction
func DeleteUser(ctx context.Context, username, host string) error {
	n, err := db.GetEngine(ctx).Where(builder.Eq{"username": username, "hostname": host}).Delete(new(User))
	if err != nil {
		return err
	} else if n == 0 {
		return ErrUserNotExist{Hostname: host, Username: username}
	}
	return nil
}

// DeleteUsersByHostname removes every user of a forge instance
func DeleteUsersByHostname(ctx context.Context, host string) (int64, error) {
	return db.GetEngine(ctx).Where(builder.Eq{"hostname": host}).Delete(new(User))
}
