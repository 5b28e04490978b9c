// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sqlite persists durable session records in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/session"
)

// RecordRepository implements session.RecordRepository using SQLite.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository.
// The user_sessions table must already exist (see store.OpenSQLite).
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Save stores a new durable record.
func (r *RecordRepository) Save(ctx context.Context, rec *session.DurableRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id, session_id, created_at)
		VALUES (?, ?, ?, ?)
	`,
		rec.ID.String(),
		rec.UserID,
		rec.SessionID,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return oops.Code("SESSION_RECORD_SAVE_FAILED").
			With("operation", "insert user_session").
			With("user_id", rec.UserID).
			Wrap(err)
	}
	return nil
}

// DeleteBySessionID removes the record holding sessionID.
func (r *RecordRepository) DeleteBySessionID(ctx context.Context, sessionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return oops.Code("SESSION_RECORD_DELETE_FAILED").
			With("operation", "delete user_session").
			Wrap(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return oops.Code("SESSION_RECORD_DELETE_FAILED").
			With("operation", "rows affected").
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("SESSION_RECORD_NOT_FOUND").Wrap(session.ErrNotFound)
	}
	return nil
}

// Exists reports whether a record holds sessionID.
func (r *RecordRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_sessions WHERE session_id = ?)`, sessionID,
	).Scan(&exists)
	if err != nil {
		return false, oops.Code("SESSION_RECORD_EXISTS_FAILED").
			With("operation", "query user_session").
			Wrap(err)
	}
	return exists, nil
}

// Compile-time interface check.
var _ session.RecordRepository = (*RecordRepository)(nil)
