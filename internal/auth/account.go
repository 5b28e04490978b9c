// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MaxEmailLength matches the RFC 5321 path limit.
const MaxEmailLength = 254

// Account is a user account as seen by the authentication core.
// SessionID and ResetToken are empty when unset.
type Account struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	ResetToken   string
	SessionID    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an Account with a fresh ID.
func NewAccount(email, passwordHash string) (*Account, error) {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ValidateEmail performs the minimal shape check accepted at registration.
// Deliverability is not checked.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_EMAIL").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email must contain a local part and a domain")
	}
	return nil
}

// NormalizeEmail returns the key emails are compared by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountUpdate names the fields an Update writes. Nil fields are left
// alone; a pointer to "" clears SessionID or ResetToken.
type AccountUpdate struct {
	PasswordHash *string
	SessionID    *string
	ResetToken   *string
}

// IsEmpty reports whether the update changes nothing.
func (u AccountUpdate) IsEmpty() bool {
	return u.PasswordHash == nil && u.SessionID == nil && u.ResetToken == nil
}

// Apply copies the set fields onto a and bumps UpdatedAt.
func (u AccountUpdate) Apply(a *Account, now time.Time) {
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.SessionID != nil {
		a.SessionID = *u.SessionID
	}
	if u.ResetToken != nil {
		a.ResetToken = *u.ResetToken
	}
	a.UpdatedAt = now
}

// Clear returns a pointer to the empty string, for clearing a field.
func Clear() *string {
	s := ""
	return &s
}

// Set returns a pointer to v.
func Set(v string) *string {
	return &v
}

// AccountRepository is the user account store consumed by Service.
// Every lookup returns ErrNotFound when nothing matches. Lookups on an
// empty session id or reset token also return ErrNotFound.
type AccountRepository interface {
	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email, ignoring case. How far
	// case folding reaches is up to the backend: the memory store folds
	// Unicode, SQLite folds ASCII only, and Postgres follows the database
	// locale. Callers trim surrounding whitespace first.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetBySessionID retrieves the account whose session field equals sessionID.
	GetBySessionID(ctx context.Context, sessionID string) (*Account, error)

	// GetByResetToken retrieves the account holding token.
	GetByResetToken(ctx context.Context, token string) (*Account, error)

	// Create stores a new account. A taken email yields an error wrapping
	// ErrAlreadyExists.
	Create(ctx context.Context, account *Account) error

	// Update writes the fields named by upd.
	Update(ctx context.Context, id ulid.ULID, upd AccountUpdate) error
}
