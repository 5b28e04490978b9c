// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
	authmemory "github.com/holomush/holoauth/internal/auth/memory"
	authpostgres "github.com/holomush/holoauth/internal/auth/postgres"
	authsqlite "github.com/holomush/holoauth/internal/auth/sqlite"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/logging"
	"github.com/holomush/holoauth/internal/session"
	sessionpostgres "github.com/holomush/holoauth/internal/session/postgres"
	sessionredis "github.com/holomush/holoauth/internal/session/redis"
	sessionsqlite "github.com/holomush/holoauth/internal/session/sqlite"
	"github.com/holomush/holoauth/internal/store"
	"github.com/holomush/holoauth/internal/xdg"
)

// app carries what PersistentPreRunE loads for every subcommand.
type app struct {
	deps   Deps
	cfg    *config.Config
	logger *slog.Logger
}

// load reads the effective configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.Setup("holoauth", version, cfg.Log.Format, cmd.ErrOrStderr(),
		logging.WithLevel(logging.ParseLevel(cfg.Log.Level)),
		logging.WithRedactKeys(cfg.Log.Redact...),
	)
	return nil
}

// backends holds the opened storage for one command run.
type backends struct {
	accounts auth.AccountRepository
	// records is nil when session.durable is none.
	records session.RecordRepository
	closers []func()
}

// Close releases every backend in reverse opening order.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// open connects the account repository and the durable session record
// store named by the configuration. A backend used by both is opened once.
func (a *app) open(ctx context.Context) (b *backends, err error) {
	b = &backends{}
	defer func() {
		if err != nil {
			b.Close()
			b = nil
		}
	}()

	var (
		pool *pgxpool.Pool
		db   *sql.DB
	)
	postgresPool := func() (*pgxpool.Pool, error) {
		if pool != nil {
			return pool, nil
		}
		p, connErr := a.deps.PostgresConnector(ctx, a.cfg.Storage.DatabaseURL)
		if connErr != nil {
			return nil, connErr
		}
		pool = p
		b.closers = append(b.closers, p.Close)
		return p, nil
	}
	sqliteDB := func() (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		path := a.cfg.Storage.SQLitePath
		if path != ":memory:" {
			if dirErr := xdg.EnsureDir(filepath.Dir(path)); dirErr != nil {
				return nil, dirErr
			}
		}
		d, openErr := a.deps.SQLiteOpener(ctx, path)
		if openErr != nil {
			return nil, openErr
		}
		db = d
		b.closers = append(b.closers, func() { _ = d.Close() })
		return d, nil
	}

	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		p, connErr := postgresPool()
		if connErr != nil {
			return nil, connErr
		}
		b.accounts = authpostgres.NewAccountRepository(p)
	case config.DriverSQLite:
		d, openErr := sqliteDB()
		if openErr != nil {
			return nil, openErr
		}
		b.accounts = authsqlite.NewAccountRepository(d)
	case config.DriverMemory:
		b.accounts = authmemory.NewAccountRepository()
	default:
		return nil, oops.Code("CONFIG_INVALID").With("driver", a.cfg.Storage.Driver).Errorf("unknown storage driver")
	}

	switch a.cfg.Session.Durable {
	case config.DurablePostgres:
		p, connErr := postgresPool()
		if connErr != nil {
			return nil, connErr
		}
		b.records = sessionpostgres.NewRecordRepository(p)
	case config.DurableSQLite:
		d, openErr := sqliteDB()
		if openErr != nil {
			return nil, openErr
		}
		b.records = sessionsqlite.NewRecordRepository(d)
	case config.DurableRedis:
		client, connErr := a.deps.RedisConnector(ctx, store.RedisOptions{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		if connErr != nil {
			return nil, connErr
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.records = sessionredis.NewRecordRepository(client)
	case config.DurableNone, "":
	default:
		return nil, oops.Code("CONFIG_INVALID").With("durable", a.cfg.Session.Durable).Errorf("unknown durable backend")
	}

	a.logger.DebugContext(ctx, "backends open",
		"driver", a.cfg.Storage.Driver,
		"durable", a.cfg.Session.Durable,
	)
	return b, nil
}

// service builds the auth facade over b.
func (a *app) service(b *backends, opts ...auth.ServiceOption) (*auth.Service, error) {
	return auth.NewServiceWithLogger(b.accounts, auth.NewArgon2idHasher(), a.logger, opts...)
}

// sessions builds the session strategy stack: memory, then expiration,
// then the durable mirror when one is configured. Expired sessions are
// logged as they are evicted.
func (a *app) sessions(b *backends) session.Store {
	mem := session.NewMemoryStore(session.WithLogger(a.logger))
	var st session.Store = session.NewExpiringStore(mem, a.cfg.Session.Duration(),
		session.WithLogger(a.logger),
		session.WithEvictHook(a.logExpired),
	)
	if b.records != nil {
		st = session.NewPersistentStore(st, b.records, session.WithLogger(a.logger))
	}
	return st
}

func (a *app) logExpired(rec session.Record) {
	a.logger.Info("session expired",
		"user_id", rec.UserID,
		"age", time.Since(rec.CreatedAt).Round(time.Millisecond),
	)
}
