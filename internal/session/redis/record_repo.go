// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package redis persists durable session records in Redis hashes.
package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/session"
)

// DefaultKeyPrefix namespaces record keys.
const DefaultKeyPrefix = "holoauth:session:"

// RecordRepository implements session.RecordRepository using Redis.
// Each record is a hash at <prefix><session id>. Keys carry no TTL; the
// durable layer never expires ids on its own.
type RecordRepository struct {
	client goredis.Cmdable
	prefix string
}

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(client goredis.Cmdable) *RecordRepository {
	return &RecordRepository{client: client, prefix: DefaultKeyPrefix}
}

func (r *RecordRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

// Save stores a new durable record.
func (r *RecordRepository) Save(ctx context.Context, rec *session.DurableRecord) error {
	err := r.client.HSet(ctx, r.key(rec.SessionID),
		"id", rec.ID.String(),
		"user_id", rec.UserID,
		"created_at", rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return oops.Code("SESSION_RECORD_SAVE_FAILED").
			With("operation", "hset user_session").
			With("user_id", rec.UserID).
			Wrap(err)
	}
	return nil
}

// DeleteBySessionID removes the record holding sessionID.
func (r *RecordRepository) DeleteBySessionID(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, r.key(sessionID)).Result()
	if err != nil {
		return oops.Code("SESSION_RECORD_DELETE_FAILED").
			With("operation", "del user_session").
			Wrap(err)
	}
	if n == 0 {
		return oops.Code("SESSION_RECORD_NOT_FOUND").Wrap(session.ErrNotFound)
	}
	return nil
}

// Exists reports whether a record holds sessionID.
func (r *RecordRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, oops.Code("SESSION_RECORD_EXISTS_FAILED").
			With("operation", "exists user_session").
			Wrap(err)
	}
	return n > 0, nil
}

// Compile-time interface check.
var _ session.RecordRepository = (*RecordRepository)(nil)
