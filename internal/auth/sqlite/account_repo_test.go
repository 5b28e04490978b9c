// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/sqlite"
	"github.com/holomush/holoauth/internal/store"
	"github.com/holomush/holoauth/pkg/errutil"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustCreate(t *testing.T, repo *sqlite.AccountRepository, email string) *auth.Account {
	t.Helper()
	a, err := auth.NewAccount(email, "hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestAccountRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewAccountRepository(openDB(t))
	a := mustCreate(t, repo, "Bob@Example.com")

	got, err := repo.GetByEmail(ctx, "bob@example.COM")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Bob@Example.com", got.Email)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Empty(t, got.SessionID)
	assert.Empty(t, got.ResetToken)
	assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

	_, err = repo.GetByID(ctx, ulid.Make())
	assert.True(t, errors.Is(err, auth.ErrNotFound))
	errutil.AssertErrorCode(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAccountRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewAccountRepository(openDB(t))
	mustCreate(t, repo, "bob@example.com")

	other, err := auth.NewAccount("BOB@example.com", "hash")
	require.NoError(t, err)
	err = repo.Create(ctx, other)
	require.Error(t, err)
	assert.True(t, errors.Is(err, auth.ErrAlreadyExists))
	errutil.AssertErrorCode(t, err, "ACCOUNT_EMAIL_EXISTS")
}

func TestAccountRepository_GetByEmailFoldsASCIIOnly(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewAccountRepository(openDB(t))
	bob := mustCreate(t, repo, "bob@example.com")
	mustCreate(t, repo, "éve@example.com")

	got, err := repo.GetByEmail(ctx, "BOB@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	_, err = repo.GetByEmail(ctx, "ÉVE@example.com")
	assert.True(t, errors.Is(err, auth.ErrNotFound))
	_, err = repo.GetByEmail(ctx, "éve@example.com")
	assert.NoError(t, err)
}

func TestAccountRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewAccountRepository(openDB(t))
	a := mustCreate(t, repo, "bob@example.com")

	require.NoError(t, repo.Update(ctx, a.ID, auth.AccountUpdate{
		SessionID:  auth.Set("sess-1"),
		ResetToken: auth.Set("tok-1"),
	}))

	got, err := repo.GetBySessionID(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "tok-1", got.ResetToken)
	assert.False(t, got.UpdatedAt.Before(a.UpdatedAt))

	got, err = repo.GetByResetToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	require.NoError(t, repo.Update(ctx, a.ID, auth.AccountUpdate{
		PasswordHash: auth.Set("new"),
		ResetToken:   auth.Clear(),
	}))
	_, err = repo.GetByResetToken(ctx, "tok-1")
	assert.True(t, errors.Is(err, auth.ErrNotFound))

	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.Equal(t, "sess-1", got.SessionID, "untouched field survives")

	err = repo.Update(ctx, ulid.Make(), auth.AccountUpdate{SessionID: auth.Clear()})
	assert.True(t, errors.Is(err, auth.ErrNotFound))
}

func TestAccountRepository_ClearedFieldsAreNull(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo := sqlite.NewAccountRepository(db)
	a := mustCreate(t, repo, "bob@example.com")
	b := mustCreate(t, repo, "alice@example.com")

	// Two cleared session ids must not collide on the unique index.
	require.NoError(t, repo.Update(ctx, a.ID, auth.AccountUpdate{SessionID: auth.Clear()}))
	require.NoError(t, repo.Update(ctx, b.ID, auth.AccountUpdate{SessionID: auth.Clear()}))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT count(*) FROM accounts WHERE session_id IS NULL`).Scan(&n))
	assert.Equal(t, 2, n)

	_, err := repo.GetBySessionID(ctx, "")
	assert.True(t, errors.Is(err, auth.ErrNotFound))
}

func TestFacadeOverSQLite(t *testing.T) {
	ctx := context.Background()
	svc, err := auth.NewService(sqlite.NewAccountRepository(openDB(t)), auth.NewArgon2idHasher())
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob@example.com", "pw")
	assert.True(t, errors.Is(err, auth.ErrAlreadyExists))

	sid, ok := svc.Login(ctx, "bob@example.com", "pw")
	require.True(t, ok)
	_, ok = svc.Resolve(ctx, sid)
	assert.True(t, ok)

	token, err := svc.RequestReset(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.UpdatePassword(ctx, token, "pw2"))
	_, ok = svc.Login(ctx, "bob@example.com", "pw2")
	assert.True(t, ok)
}

