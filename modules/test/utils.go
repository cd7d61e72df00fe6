// Copyright 2024 The Forgejo Authors
// SPDX-License-Identifier: MIT

package test

// MockVariableValue sets a variable to the given value and returns a function
// that restores the original value
func MockVariableValue[T any](p *T, v T) (reset func()) {
	old := *p
	*p = v
	return func() { *p = old }
}

// MockProtect remembers the current value of a variable and returns a
// function that puts it back
func MockProtect[T any](p *T) (reset func()) {
	old := *p
	return func() { *p = old }
}
