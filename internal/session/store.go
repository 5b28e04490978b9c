// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"log/slog"
	"time"
)

// Record is the value a session id maps to.
type Record struct {
	SessionID string
	UserID    string
	CreatedAt time.Time
}

// Store is the capability shared by every session strategy.
//
// Failures are soft: Create returns ("", false) when no session was created,
// Resolve returns ("", false) for any id that does not name a live session,
// and Destroy returns false when there was nothing to destroy.
type Store interface {
	// Create starts a session for userID and returns its id.
	Create(ctx context.Context, userID string) (string, bool)

	// Resolve returns the user that owns sessionID.
	Resolve(ctx context.Context, sessionID string) (string, bool)

	// Destroy ends the session.
	Destroy(ctx context.Context, sessionID string) bool
}

// RecordStore is a Store whose records can be read and rewritten by the
// strategies that wrap it.
type RecordStore interface {
	Store

	// Record returns the raw record for sessionID without applying any policy.
	Record(ctx context.Context, sessionID string) (Record, bool)

	// Replace overwrites the record for an existing session.
	// Returns false if the session no longer exists.
	Replace(ctx context.Context, rec Record) bool

	// DeleteIf removes the session only if cond reports true for its current
	// record. The check and the removal happen atomically.
	DeleteIf(ctx context.Context, sessionID string, cond func(Record) bool) bool
}

// Option configures a session strategy.
type Option func(*options)

type options struct {
	now     func() time.Time
	newID   func() (string, error)
	logger  *slog.Logger
	onEvict func(Record)
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  NewID,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(o *options) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// WithLogger sets the logger used for soft-failure diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEvictHook registers fn to be called after an expired record is evicted.
func WithEvictHook(fn func(Record)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}
