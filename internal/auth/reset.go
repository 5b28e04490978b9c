// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/session"
)

// ResetTokens manages the single reset token stored on each account.
type ResetTokens struct {
	accounts AccountRepository
	newToken func() (string, error)
}

// NewResetTokens creates a ResetTokens backed by accounts. Tokens come
// from the same generator as session identifiers.
func NewResetTokens(accounts AccountRepository) *ResetTokens {
	return &ResetTokens{accounts: accounts, newToken: session.NewID}
}

// Issue returns the account's live token, or mints and stores a new one.
func (r *ResetTokens) Issue(ctx context.Context, account *Account) (string, error) {
	if account.ResetToken != "" {
		return account.ResetToken, nil
	}

	token, err := r.newToken()
	if err != nil {
		return "", oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	if err := r.accounts.Update(ctx, account.ID, AccountUpdate{ResetToken: Set(token)}); err != nil {
		return "", oops.Code("RESET_TOKEN_STORE_FAILED").
			With("operation", "store reset token").
			With("account_id", account.ID.String()).
			Wrap(err)
	}
	account.ResetToken = token
	return token, nil
}

// Consume resolves the account holding token. The caller clears the token
// in the same write that changes the password.
func (r *ResetTokens) Consume(ctx context.Context, token string) (*Account, error) {
	if token == "" {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
	}
	account, err := r.accounts.GetByResetToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
	}
	if err != nil {
		return nil, oops.Code("RESET_TOKEN_LOOKUP_FAILED").
			With("operation", "get account by reset token").
			Wrap(err)
	}
	return account, nil
}
