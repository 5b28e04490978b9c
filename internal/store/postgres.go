// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store opens the relational backends behind account and session
// repositories and owns their schema.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectAttempts bounds how many times ConnectPostgres pings before giving up.
const ConnectAttempts = 5

// pinger is satisfied by *pgxpool.Pool.
type pinger interface {
	Ping(ctx context.Context) error
}

// ConnectPostgres opens a pool and waits for the server to answer, backing
// off exponentially between attempts.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := waitReady(ctx, pool, 200*time.Millisecond, "DB_CONNECT_FAILED"); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// waitReady pings p until it answers, failing with code after
// ConnectAttempts tries.
func waitReady(ctx context.Context, p pinger, base time.Duration, code string) error {
	backoff := retry.WithMaxRetries(ConnectAttempts-1, retry.NewExponential(base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code(code).
			With("operation", "ping").
			With("attempts", ConnectAttempts).
			Wrap(err)
	}
	return nil
}
