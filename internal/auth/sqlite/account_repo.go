// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sqlite implements auth.AccountRepository on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/holomush/holoauth/internal/auth"
)

const selectAccount = `
	SELECT id, email, password_hash, reset_token, session_id, created_at, updated_at
	FROM accounts
`

// AccountRepository implements auth.AccountRepository using SQLite.
// Timestamps are stored as RFC3339Nano strings in UTC.
type AccountRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAccountRepository creates a new AccountRepository.
// The accounts table must already exist (see store.OpenSQLite).
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// Create stores a new account.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, reset_token, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		nullable(account.ResetToken),
		nullable(account.SessionID),
		formatTime(account.CreatedAt),
		formatTime(account.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_EMAIL_EXISTS").
			With("email", account.Email).
			Wrap(auth.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Account, error) {
	return r.getOne(ctx, "id", selectAccount+`WHERE id = ?`, id.String())
}

// GetByEmail retrieves an account by email. NOCASE folds ASCII letters
// only, so "ÉVE@x" and "éve@x" are different emails here.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return r.getOne(ctx, "email", selectAccount+`WHERE email = ? COLLATE NOCASE`, email)
}

// GetBySessionID retrieves the account whose session field equals sessionID.
func (r *AccountRepository) GetBySessionID(ctx context.Context, sessionID string) (*auth.Account, error) {
	if sessionID == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("by", "session_id").Wrap(auth.ErrNotFound)
	}
	return r.getOne(ctx, "session_id", selectAccount+`WHERE session_id = ?`, sessionID)
}

// GetByResetToken retrieves the account holding token.
func (r *AccountRepository) GetByResetToken(ctx context.Context, token string) (*auth.Account, error) {
	if token == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("by", "reset_token").Wrap(auth.ErrNotFound)
	}
	return r.getOne(ctx, "reset_token", selectAccount+`WHERE reset_token = ?`, token)
}

func (r *AccountRepository) getOne(ctx context.Context, by, query string, arg any) (*auth.Account, error) {
	var (
		idStr, created, updated string
		resetToken, sessionID   sql.NullString
		a                       auth.Account
	)
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&idStr, &a.Email, &a.PasswordHash, &resetToken, &sessionID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("by", by).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by "+by).
			Wrap(err)
	}

	if a.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_TIME").With("column", "created_at").Wrap(err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_TIME").With("column", "updated_at").Wrap(err)
	}
	a.ResetToken = resetToken.String
	a.SessionID = sessionID.String
	return &a, nil
}

// Update writes the fields named by upd and bumps updated_at.
func (r *AccountRepository) Update(ctx context.Context, id ulid.ULID, upd auth.AccountUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = ?", col))
		args = append(args, v)
	}
	if upd.PasswordHash != nil {
		set("password_hash", *upd.PasswordHash)
	}
	if upd.SessionID != nil {
		set("session_id", nullable(*upd.SessionID))
	}
	if upd.ResetToken != nil {
		set("reset_token", nullable(*upd.ResetToken))
	}
	set("updated_at", formatTime(r.now()))
	args = append(args, id.String())

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("account_id", id.String()).
			Wrap(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "rows affected").
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
