// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package forge

import (
	"errors"
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/util"
)

// ErrInstanceNotExist represents a "InstanceNotExist" kind of error.
type ErrInstanceNotExist struct {
	Hostname string
}

// IsErrInstanceNotExist checks if an error is a ErrInstanceNotExist.
func IsErrInstanceNotExist(err error) bool {
	return errors.As(err, new(ErrInstanceNotExist))
}

func (err ErrInstanceNotExist) Error() string {
	return fmt.Sprintf("forge instance does not exist [hostname: %s]", err.Hostname)
}

func (err ErrInstanceNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrInstanceAlreadyExist represents a "InstanceAlreadyExist" kind of error.
type ErrInstanceAlreadyExist struct {
	Hostname string
}

// IsErrInstanceAlreadyExist checks if an error is a ErrInstanceAlreadyExist.
func IsErrInstanceAlreadyExist(err error) bool {
	return errors.As(err, new(ErrInstanceAlreadyExist))
}

func (err ErrInstanceAlreadyExist) Error() string {
	return fmt.Sprintf("forge instance already exists [hostname: %s]", err.Hostname)
}

func (err ErrInstanceAlreadyExist) Unwrap() error {
	return util.ErrAlreadyExist
}

// ErrTypeNotExist is returned when a forge references a type that was never seeded
type ErrTypeNotExist struct {
	Type Type
}

// IsErrTypeNotExist checks if an error is a ErrTypeNotExist.
func IsErrTypeNotExist(err error) bool {
	return errors.As(err, new(ErrTypeNotExist))
}

func (err ErrTypeNotExist) Error() string {
	return fmt.Sprintf("forge type is not registered [type: %s]", err.Type)
}

func (err ErrTypeNotExist) Unwrap() error {
	return util.ErrDanglingReference
}
