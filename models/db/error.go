// Copyright 2024 The Forgejo Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"errors"
	"fmt"

	"codeberg.org/forgeflux/starchart/modules/util"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrStoreFault wraps a failure of the backing store that is not a domain error
type ErrStoreFault struct {
	Op  string
	Err error
}

// IsErrStoreFault checks if an error is a ErrStoreFault
func IsErrStoreFault(err error) bool {
	var fault ErrStoreFault
	return errors.As(err, &fault)
}

func (err ErrStoreFault) Error() string {
	return fmt.Sprintf("store fault [op: %s]: %v", err.Op, err.Err)
}

// Unwrap matches both util.ErrStoreFault and the underlying error
func (err ErrStoreFault) Unwrap() []error {
	return []error{util.ErrStoreFault, err.Err}
}

// Fault wraps err in an ErrStoreFault unless it is nil or already a domain error
func Fault(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, util.ErrNotExist),
		errors.Is(err, util.ErrAlreadyExist),
		errors.Is(err, util.ErrDanglingReference),
		errors.Is(err, util.ErrInvalidArgument),
		errors.Is(err, util.ErrStoreFault):
		return err
	}
	return ErrStoreFault{Op: op, Err: err}
}

// IsErrDuplicateKey reports whether err is a unique constraint violation of
// one of the supported SQL engines
func IsErrDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062 // ER_DUP_ENTRY
	}
	return false
}
