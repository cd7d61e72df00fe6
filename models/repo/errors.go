// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package repo

import (
	"errors"
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/util"
)

// ErrRepoNotExist represents a "RepoNotExist" kind of error.
type ErrRepoNotExist struct {
	Hostname string
	Owner    string
	Name     string
}

// IsErrRepoNotExist checks if an error is a ErrRepoNotExist.
func IsErrRepoNotExist(err error) bool {
	return errors.As(err, new(ErrRepoNotExist))
}

func (err ErrRepoNotExist) Error() string {
	return fmt.Sprintf("repository does not exist [hostname: %s, owner: %s, name: %s]", err.Hostname, err.Owner, err.Name)
}

// Unwrap unwraps this error as a ErrNotExist error
func (err ErrRepoNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrRepoAlreadyExist represents a "RepoAlreadyExist" kind of error.
type ErrRepoAlreadyExist struct {
	Hostname string
	Owner    string
	Name     string
}

// IsErrRepoAlreadyExist checks if an error is a ErrRepoAlreadyExist.
func IsErrRepoAlreadyExist(err error) bool {
	return errors.As(err, new(ErrRepoAlreadyExist))
}

func (err ErrRepoAlreadyExist) Error() string {
	return fmt.Sprintf("repository already exists [hostname: %s, owner: %s, name: %s]", err.Hostname, err.Owner, err.Name)
}

// Unwrap unwraps this error as a ErrAlreadyExist error
func (err ErrRepoAlreadyExist) Unwrap() error {
	return util.ErrAlreadyExist
}

// ErrOwnerMissing is returned when a repository is added for an unknown user
type ErrOwnerMissing struct {
	Hostname string
	Owner    string
	Name     string
}

// IsErrOwnerMissing checks if an error is a ErrOwnerMissing.
func IsErrOwnerMissing(err error) bool {
	return errors.As(err, new(ErrOwnerMissing))
}

func (err ErrOwnerMissing) Error() string {
	return fmt.Sprintf("owner of repository is not registered [hostname: %s, owner: %s, name: %s]", err.Hostname, err.Owner, err.Name)
}

func (err ErrOwnerMissing) Unwrap() error {
	return util.ErrDanglingReference
}
