// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/holomush/holoauth/pkg/errutil"
)

// maxIDAttempts bounds id regeneration on collision.
const maxIDAttempts = 3

// MemoryStore keeps sessions in a process-local map.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record

	now    func() time.Time
	newID  func() (string, error)
	logger *slog.Logger
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := buildOptions(opts)
	return &MemoryStore{
		records: make(map[string]Record),
		now:     o.now,
		newID:   o.newID,
		logger:  o.logger,
	}
}

// Create starts a session for userID. An empty userID is rejected.
func (s *MemoryStore) Create(ctx context.Context, userID string) (string, bool) {
	if userID == "" {
		return "", false
	}

	for range maxIDAttempts {
		id, err := s.newID()
		if err != nil {
			errutil.LogWarnContext(ctx, s.logger, "session id generation failed", err)
			return "", false
		}

		s.mu.Lock()
		if _, taken := s.records[id]; taken {
			s.mu.Unlock()
			continue
		}
		s.records[id] = Record{SessionID: id, UserID: userID, CreatedAt: s.now()}
		s.mu.Unlock()
		return id, true
	}

	s.logger.WarnContext(ctx, "session id collided on every attempt", "attempts", maxIDAttempts)
	return "", false
}

// Resolve returns the owner of sessionID.
func (s *MemoryStore) Resolve(_ context.Context, sessionID string) (string, bool) {
	if sessionID == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return "", false
	}
	return rec.UserID, true
}

// Destroy removes sessionID. Returns false if it was not present.
func (s *MemoryStore) Destroy(_ context.Context, sessionID string) bool {
	if sessionID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[sessionID]; !ok {
		return false
	}
	delete(s.records, sessionID)
	return true
}

// Record returns a copy of the record for sessionID.
func (s *MemoryStore) Record(_ context.Context, sessionID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	return rec, ok
}

// Replace overwrites the record for an existing session.
func (s *MemoryStore) Replace(_ context.Context, rec Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.SessionID]; !ok {
		return false
	}
	s.records[rec.SessionID] = rec
	return true
}

// DeleteIf removes sessionID when cond holds for its record.
func (s *MemoryStore) DeleteIf(_ context.Context, sessionID string, cond func(Record) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sessionID]
	if !ok || !cond(rec) {
		return false
	}
	delete(s.records, sessionID)
	return true
}

// Len returns the number of sessions currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ RecordStore = (*MemoryStore)(nil)
