// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package user

import (
	"errors"
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/util"
)

// ErrUserNotExist represents a "UserNotExist" kind of error.
type ErrUserNotExist struct {
	Hostname string
	Username string
}

// IsErrUserNotExist checks if an error is a ErrUserNotExist.
func IsErrUserNotExist(err error) bool {
	return errors.As(err, new(ErrUserNotExist))
}

func (err ErrUserNotExist) Error() string {
	return fmt.Sprintf("user does not exist [hostname: %s, name: %s]", err.Hostname, err.Username)
}

// Unwrap unwraps this error as a ErrNotExist error
func (err ErrUserNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrUserAlreadyExist represents a "user already exists" error.
type ErrUserAlreadyExist struct {
	Hostname string
	Username string
}

// IsErrUserAlreadyExist checks if an error is a ErrUserAlreadyExist.
func IsErrUserAlreadyExist(err error) bool {
	return errors.As(err, new(ErrUserAlreadyExist))
}

func (err ErrUserAlreadyExist) Error() string {
	return fmt.Sprintf("user already exists [hostname: %s, name: %s]", err.Hostname, err.Username)
}

// Unwrap unwraps this error as a ErrAlreadyExist error
func (err ErrUserAlreadyExist) Unwrap() error {
	return util.ErrAlreadyExist
}

// ErrForgeMissing is returned when a user is added to an unregistered forge
type ErrForgeMissing struct {
	Hostname string
	Username string
}

// IsErrForgeMissing checks if an error is a ErrForgeMissing.
func IsErrForgeMissing(err error) bool {
	return errors.As(err, new(ErrForgeMissing))
}

func (err ErrForgeMissing) Error() string {
	return fmt.Sprintf("forge instance of user is not registered [hostname: %s, name: %s]", err.Hostname, err.Username)
}

func (err ErrForgeMissing) Unwrap() error {
	return util.ErrDanglingReference
}
