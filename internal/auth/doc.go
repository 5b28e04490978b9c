// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth implements account authentication for HoloAuth.
//
// # Domain Types
//
// Accounts are created with NewAccount, which assigns a ULID and validates
// the email and password hash. Repositories receive pre-validated accounts
// and mutate them only through AccountUpdate, which touches the session,
// reset-token, and password fields.
//
// # Services
//
//   - Service - register, login, resolve, logout, password reset
//   - ResetTokens - one live reset token per account, stored on the account
//
// Service reports failures two ways. Login, ValidLogin, Resolve and Logout
// never return errors: a bad credential or unknown session yields false.
// Register, RequestReset and UpdatePassword return oops errors that wrap
// ErrAlreadyExists, ErrNotFound or ErrInvalidToken.
package auth
