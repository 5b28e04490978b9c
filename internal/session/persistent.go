// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/pkg/errutil"
)

// ErrNotFound is returned by a RecordRepository when no durable record
// matches.
var ErrNotFound = errors.New("session record not found")

// DurableRecord is the persisted form of a session id.
// It carries no expiration data; expiration authority stays in memory.
type DurableRecord struct {
	ID        ulid.ULID
	UserID    string
	SessionID string
	CreatedAt time.Time
}

// NewDurableRecord creates a validated DurableRecord.
func NewDurableRecord(userID, sessionID string, createdAt time.Time) (*DurableRecord, error) {
	if userID == "" {
		return nil, oops.Code("SESSION_RECORD_INVALID_USER").Errorf("user ID cannot be empty")
	}
	if sessionID == "" {
		return nil, oops.Code("SESSION_RECORD_INVALID_SESSION").Errorf("session ID cannot be empty")
	}
	if createdAt.IsZero() {
		return nil, oops.Code("SESSION_RECORD_INVALID_TIME").Errorf("created time cannot be zero")
	}
	return &DurableRecord{
		ID:        ulid.Make(),
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: createdAt,
	}, nil
}

// RecordRepository persists session ids.
type RecordRepository interface {
	// Save stores a new durable record.
	Save(ctx context.Context, rec *DurableRecord) error

	// DeleteBySessionID removes the record holding sessionID.
	// Returns ErrNotFound if none matched.
	DeleteBySessionID(ctx context.Context, sessionID string) error

	// Exists reports whether a record holds sessionID.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// PersistentStore mirrors the sessions of the Store it wraps into a
// RecordRepository. Resolve is served by the wrapped store alone.
type PersistentStore struct {
	inner   Store
	records RecordRepository

	now    func() time.Time
	logger *slog.Logger
}

// NewPersistentStore wraps inner and mirrors its sessions into records.
func NewPersistentStore(inner Store, records RecordRepository, opts ...Option) *PersistentStore {
	o := buildOptions(opts)
	return &PersistentStore{
		inner:   inner,
		records: records,
		now:     o.now,
		logger:  o.logger,
	}
}

// Create starts a session and persists its id. If the durable write fails
// the in-memory session is destroyed and no session is returned.
func (s *PersistentStore) Create(ctx context.Context, userID string) (string, bool) {
	id, ok := s.inner.Create(ctx, userID)
	if !ok {
		return "", false
	}

	rec, err := NewDurableRecord(userID, id, s.now())
	if err == nil {
		err = s.records.Save(ctx, rec)
	}
	if err != nil {
		errutil.LogWarnContext(ctx, s.logger, "persist session record failed", err)
		s.inner.Destroy(ctx, id)
		return "", false
	}
	return id, true
}

// Resolve returns the owner of sessionID from the wrapped store.
func (s *PersistentStore) Resolve(ctx context.Context, sessionID string) (string, bool) {
	return s.inner.Resolve(ctx, sessionID)
}

// Destroy ends the session in the wrapped store and then deletes its durable
// record. A durable miss or failure is logged; the in-memory destroy stands.
func (s *PersistentStore) Destroy(ctx context.Context, sessionID string) bool {
	if !s.inner.Destroy(ctx, sessionID) {
		return false
	}

	err := s.records.DeleteBySessionID(ctx, sessionID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		s.logger.DebugContext(ctx, "no durable record for destroyed session")
	default:
		errutil.LogWarnContext(ctx, s.logger, "delete session record failed", err)
	}
	return true
}

// Exists reports whether a durable record holds sessionID.
func (s *PersistentStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	ok, err := s.records.Exists(ctx, sessionID)
	if err != nil {
		return false, oops.Code("SESSION_EXISTS_FAILED").
			With("operation", "check durable record").
			Wrap(err)
	}
	return ok, nil
}

var _ Store = (*PersistentStore)(nil)
