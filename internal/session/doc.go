// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session implements the session strategy stack.
//
// # Strategies
//
// Every strategy satisfies Store and is built by composition:
//   - MemoryStore - owns the session id to record mapping
//   - ExpiringStore - wraps a RecordStore and expires records lazily on read
//   - PersistentStore - wraps a Store and mirrors session ids to a durable
//     RecordRepository
//
// A typical stack is
//
//	mem := session.NewMemoryStore()
//	exp := session.NewExpiringStore(mem, 30*time.Minute)
//	store := session.NewPersistentStore(exp, postgres.NewRecordRepository(pool))
//
// Invalid, absent, and expired session ids all resolve to ("", false).
// Callers cannot tell an expired session from one that never existed.
//
// # Durable records
//
// The durable layer is write-path only. Lookup and expiration authority stay
// with the in-memory strategies; durable records exist so that session ids
// survive a restart for external existence checks.
package session
