// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"database/sql"

	"github.com/samber/oops"
	// Pure Go SQLite driver.
	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// sqliteSchema mirrors the PostgreSQL migrations. Timestamps are RFC3339
// strings in UTC.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		reset_token   TEXT,
		session_id    TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_email_lower ON accounts (email COLLATE NOCASE)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_session_id ON accounts (session_id) WHERE session_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_reset_token ON accounts (reset_token) WHERE reset_token IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		session_id TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions (user_id)`,
}

// OpenSQLite opens the database at path (":memory:" for a throwaway one)
// and creates the schema if missing. The pool is capped at one connection
// so an in-memory database is shared by every query.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("SQLITE_OPEN_FAILED").With("path", path).Wrap(err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range append(append([]string{}, sqlitePragmas...), sqliteSchema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, oops.Code("SQLITE_SCHEMA_FAILED").
				With("path", path).
				With("statement", stmt).
				Wrap(err)
		}
	}
	return db, nil
}
