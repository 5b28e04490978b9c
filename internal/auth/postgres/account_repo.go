// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements auth.AccountRepository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// poolIface is the subset of pgxpool.Pool the repository needs.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const selectAccount = `
	SELECT id, email, password_hash, reset_token, session_id, created_at, updated_at
	FROM accounts
`

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
	now  func() time.Time
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool, now: time.Now}
}

// Create stores a new account. A unique violation on the email index
// becomes auth.ErrAlreadyExists.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, reset_token, session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		nullable(account.ResetToken),
		nullable(account.SessionID),
		account.CreatedAt,
		account.UpdatedAt,
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
	return r.getOne(ctx, "id", selectAccount+`WHERE id = $1`, id.String())
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return r.getOne(ctx, "email", selectAccount+`WHERE LOWER(email) = LOWER($1)`, email)
}

// GetBySessionID retrieves the account whose session field equals sessionID.
func (r *AccountRepository) GetBySessionID(ctx context.Context, sessionID string) (*auth.Account, error) {
	if sessionID == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("by", "session_id").Wrap(auth.ErrNotFound)
	}
	return r.getOne(ctx, "session_id", selectAccount+`WHERE session_id = $1`, sessionID)
}

// GetByResetToken retrieves the account holding token.
func (r *AccountRepository) GetByResetToken(ctx context.Context, token string) (*auth.Account, error) {
	if token == "" {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("by", "reset_token").Wrap(auth.ErrNotFound)
	}
	return r.getOne(ctx, "reset_token", selectAccount+`WHERE reset_token = $1`, token)
}

func (r *AccountRepository) getOne(ctx context.Context, by, query string, arg any) (*auth.Account, error) {
	account, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").With("by", by).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_FAILED").
			With("operation", "get account by "+by).
			Wrap(err)
	}
	return account, nil
}

// Update writes the fields named by upd and bumps updated_at.
func (r *AccountRepository) Update(ctx context.Context, id ulid.ULID, upd auth.AccountUpdate) error {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
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
	set("updated_at", r.now().UTC())
	args = append(args, id.String())

	query := fmt.Sprintf(`UPDATE accounts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("account_id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("account_id", id.String()).Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount propagates pgx.ErrNoRows unchanged.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr      string
		a          auth.Account
		resetToken *string
		sessionID  *string
	)
	if err := row.Scan(&idStr, &a.Email, &a.PasswordHash, &resetToken, &sessionID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}
	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_CORRUPT_ID").With("id", idStr).Wrap(err)
	}
	a.ID = id
	if resetToken != nil {
		a.ResetToken = *resetToken
	}
	if sessionID != nil {
		a.SessionID = *sessionID
	}
	return &a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
