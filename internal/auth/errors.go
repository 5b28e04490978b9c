// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when registering an email that is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidToken is returned when no account holds a reset token.
	ErrInvalidToken = errors.New("invalid reset token")
)
