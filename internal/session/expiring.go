// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"log/slog"
	"time"
)

// ExpiringStore applies an expiration duration to the sessions of the
// RecordStore it wraps. Expired records are evicted when they are read;
// there is no background sweep.
type ExpiringStore struct {
	inner    RecordStore
	duration time.Duration

	now     func() time.Time
	onEvict func(Record)
	logger  *slog.Logger
}

// NewExpiringStore wraps inner. A duration of zero or less never expires.
func NewExpiringStore(inner RecordStore, duration time.Duration, opts ...Option) *ExpiringStore {
	o := buildOptions(opts)
	return &ExpiringStore{
		inner:    inner,
		duration: duration,
		now:      o.now,
		onEvict:  o.onEvict,
		logger:   o.logger,
	}
}

// Duration returns the configured session lifetime.
func (s *ExpiringStore) Duration() time.Duration {
	return s.duration
}

// Create starts a session and stamps its record with the current time.
func (s *ExpiringStore) Create(ctx context.Context, userID string) (string, bool) {
	id, ok := s.inner.Create(ctx, userID)
	if !ok {
		return "", false
	}
	rec := Record{SessionID: id, UserID: userID, CreatedAt: s.now()}
	if !s.inner.Replace(ctx, rec) {
		// Destroyed between create and stamp.
		return "", false
	}
	return id, true
}

// Resolve returns the owner of sessionID, evicting it first if it expired.
func (s *ExpiringStore) Resolve(ctx context.Context, sessionID string) (string, bool) {
	if sessionID == "" {
		return "", false
	}
	rec, ok := s.inner.Record(ctx, sessionID)
	if !ok {
		return "", false
	}
	if s.duration <= 0 {
		return rec.UserID, true
	}
	if rec.CreatedAt.IsZero() {
		return "", false
	}
	if !s.expired(rec) {
		return rec.UserID, true
	}

	if s.inner.DeleteIf(ctx, sessionID, s.expired) {
		s.logger.DebugContext(ctx, "session expired",
			"user_id", rec.UserID,
			"created_at", rec.CreatedAt,
		)
		if s.onEvict != nil {
			s.onEvict(rec)
		}
	}
	return "", false
}

// Destroy ends the session.
func (s *ExpiringStore) Destroy(ctx context.Context, sessionID string) bool {
	return s.inner.Destroy(ctx, sessionID)
}

// Record returns the raw record without applying expiration.
func (s *ExpiringStore) Record(ctx context.Context, sessionID string) (Record, bool) {
	return s.inner.Record(ctx, sessionID)
}

// Replace overwrites the record for an existing session.
func (s *ExpiringStore) Replace(ctx context.Context, rec Record) bool {
	return s.inner.Replace(ctx, rec)
}

// DeleteIf removes sessionID when cond holds for its record.
func (s *ExpiringStore) DeleteIf(ctx context.Context, sessionID string, cond func(Record) bool) bool {
	return s.inner.DeleteIf(ctx, sessionID, cond)
}

// expired reports whether now is past rec's expiry bound.
func (s *ExpiringStore) expired(rec Record) bool {
	return s.now().After(rec.CreatedAt.Add(s.duration))
}

var _ RecordStore = (*ExpiringStore)(nil)
