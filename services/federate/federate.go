// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package federate mirrors the registry into a directory tree of YAML
// documents and packs that tree into bundles for peer registries.
package federate

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/forgeflux/starchart/models/forge"
	repo_model "codeberg.org/forgeflux/starchart/models/repo"
	user_model "codeberg.org/forgeflux/starchart/models/user"
	"codeberg.org/forgeflux/starchart/modules/util"
)

// Federate is implemented by every export target. Hostnames are normalized.
type Federate interface {
	CreateForgeInstance(ctx context.Context, instance *forge.Instance) error
	DeleteForgeInstance(ctx context.Context, host string) error
	ForgeExists(ctx context.Context, host string) (bool, error)

	CreateUser(ctx context.Context, u *user_model.User) error
	UserExists(ctx context.Context, username, host string) (bool, error)
	// DeleteUser removes the user with its repositories
	DeleteUser(ctx context.Context, username, host string) error

	CreateRepository(ctx context.Context, r *repo_model.Repository) error
	RepositoryExists(ctx context.Context, name, owner, host string) (bool, error)
	DeleteRepository(ctx context.Context, owner, name, host string) error

	// CreateDirIfNotExists succeeds when the directory is already present
	CreateDirIfNotExists(path string) error
	// RemovePath succeeds when nothing is present at path
	RemovePath(path string) error

	// Bundle packs the export tree and returns the path of the bundle
	Bundle(ctx context.Context) (string, error)
	Root() string
}

// ErrIO is a filesystem or archive failure of an export target
type ErrIO struct {
	Op   string
	Path string
	Err  error
}

func IsErrIO(err error) bool {
	return errors.As(err, new(ErrIO))
}

func (err ErrIO) Error() string {
	return fmt.Sprintf("federation %s %s: %v", err.Op, err.Path, err.Err)
}

func (err ErrIO) Unwrap() []error {
	return []error{util.ErrIOFault, err.Err}
}

func ioFault(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return ErrIO{Op: op, Path: path, Err: err}
}
