// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package memory provides an in-process auth.AccountRepository.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// AccountRepository keeps accounts in a map guarded by one mutex. Returned
// accounts are copies.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[ulid.ULID]*auth.Account
	byEmail  map[string]ulid.ULID
	now      func() time.Time
}

// NewAccountRepository creates an empty repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[ulid.ULID]*auth.Account),
		byEmail:  make(map[string]ulid.ULID),
		now:      time.Now,
	}
}

func notFound(op string) error {
	return oops.Code("ACCOUNT_NOT_FOUND").With("operation", op).Wrap(auth.ErrNotFound)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, notFound("get account by id")
	}
	cp := *a
	return &cp, nil
}

// GetByEmail retrieves an account by email, ignoring case.
func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*auth.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, notFound("get account by email")
	}
	cp := *r.accounts[id]
	return &cp, nil
}

// GetBySessionID retrieves the account whose session field equals sessionID.
func (r *AccountRepository) GetBySessionID(_ context.Context, sessionID string) (*auth.Account, error) {
	return r.find(sessionID, "get account by session id", func(a *auth.Account) string { return a.SessionID })
}

// GetByResetToken retrieves the account holding token.
func (r *AccountRepository) GetByResetToken(_ context.Context, token string) (*auth.Account, error) {
	return r.find(token, "get account by reset token", func(a *auth.Account) string { return a.ResetToken })
}

func (r *AccountRepository) find(value, op string, field func(*auth.Account) string) (*auth.Account, error) {
	if value == "" {
		return nil, notFound(op)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if field(a) == value {
			cp := *a
			return &cp, nil
		}
	}
	return nil, notFound(op)
}

// Create stores a new account.
func (r *AccountRepository) Create(_ context.Context, account *auth.Account) error {
	key := auth.NormalizeEmail(account.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[key]; taken {
		return oops.Code("ACCOUNT_EMAIL_EXISTS").With("email", account.Email).Wrap(auth.ErrAlreadyExists)
	}
	if _, taken := r.accounts[account.ID]; taken {
		return oops.Code("ACCOUNT_ID_EXISTS").With("account_id", account.ID.String()).Wrap(auth.ErrAlreadyExists)
	}
	cp := *account
	r.accounts[account.ID] = &cp
	r.byEmail[key] = account.ID
	return nil
}

// Update writes the fields named by upd.
func (r *AccountRepository) Update(_ context.Context, id ulid.ULID, upd auth.AccountUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return notFound("update account")
	}
	upd.Apply(a, r.now().UTC())
	return nil
}

// Len returns the number of stored accounts.
func (r *AccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
