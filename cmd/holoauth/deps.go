// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/holomush/holoauth/internal/observability"
	"github.com/holomush/holoauth/internal/store"
)

// Deps contains injectable dependencies for the CLI commands.
// Nil fields use their default implementations.
type Deps struct {
	// PostgresConnector opens a pool for a database URL.
	// Default: store.ConnectPostgres
	PostgresConnector func(ctx context.Context, dsn string) (*pgxpool.Pool, error)

	// SQLiteOpener opens a SQLite database file.
	// Default: store.OpenSQLite
	SQLiteOpener func(ctx context.Context, path string) (*sql.DB, error)

	// RedisConnector opens a Redis client.
	// Default: store.ConnectRedis
	RedisConnector func(ctx context.Context, opts store.RedisOptions) (*goredis.Client, error)

	// MigratorFactory creates a schema migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.PostgresConnector == nil {
		d.PostgresConnector = store.ConnectPostgres
	}
	if d.SQLiteOpener == nil {
		d.SQLiteOpener = store.OpenSQLite
	}
	if d.RedisConnector == nil {
		d.RedisConnector = store.ConnectRedis
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, ready)
		}
	}
	return d
}
