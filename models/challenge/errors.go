// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package challenge

import (
	"errors"
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/util"
)

// ErrChallengeNotExist represents a "ChallengeNotExist" kind of error.
type ErrChallengeNotExist struct {
	Key      string
	Hostname string
}

// IsErrChallengeNotExist checks if an error is a ErrChallengeNotExist.
func IsErrChallengeNotExist(err error) bool {
	return errors.As(err, new(ErrChallengeNotExist))
}

func (err ErrChallengeNotExist) Error() string {
	if err.Key == "" {
		return fmt.Sprintf("dns challenge does not exist [hostname: %s]", err.Hostname)
	}
	return fmt.Sprintf("dns challenge does not exist [key: %s]", err.Key)
}

func (err ErrChallengeNotExist) Unwrap() error {
	return util.ErrNotExist
}

// ErrChallengeConflict is returned when a different challenge is already
// stored for the key or the hostname
type ErrChallengeConflict struct {
	Key      string
	Hostname string
}

// IsErrChallengeConflict checks if an error is a ErrChallengeConflict.
func IsErrChallengeConflict(err error) bool {
	return errors.As(err, new(ErrChallengeConflict))
}

func (err ErrChallengeConflict) Error() string {
	return fmt.Sprintf("a different dns challenge is already stored [key: %s, hostname: %s]", err.Key, err.Hostname)
}

func (err ErrChallengeConflict) Unwrap() error {
	return util.ErrAlreadyExist
}
