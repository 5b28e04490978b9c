// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres persists durable session records in PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/session"
)

// poolIface is the subset of pgxpool.Pool the repository needs.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RecordRepository implements session.RecordRepository using PostgreSQL.
type RecordRepository struct {
	pool poolIface
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(pool poolIface) *RecordRepository {
	return &RecordRepository{pool: pool}
}

// Save stores a new durable record.
func (r *RecordRepository) Save(ctx context.Context, rec *session.DurableRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, session_id, created_at)
		VALUES ($1, $2, $3, $4)
	`,
		rec.ID.String(),
		rec.UserID,
		rec.SessionID,
		rec.CreatedAt,
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
	result, err := r.pool.Exec(ctx, `
		DELETE FROM user_sessions WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return oops.Code("SESSION_RECORD_DELETE_FAILED").
			With("operation", "delete user_session").
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_RECORD_NOT_FOUND").Wrap(session.ErrNotFound)
	}
	return nil
}

// Exists reports whether a record holds sessionID.
func (r *RecordRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_sessions WHERE session_id = $1)
	`, sessionID).Scan(&exists)
	if err != nil {
		return false, oops.Code("SESSION_RECORD_EXISTS_FAILED").
			With("operation", "query user_session").
			Wrap(err)
	}
	return exists, nil
}

// Compile-time interface check.
var _ session.RecordRepository = (*RecordRepository)(nil)
