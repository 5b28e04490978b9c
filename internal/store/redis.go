// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// RedisOptions selects the Redis server and logical database.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// redisPinger adapts a go-redis client to pinger.
type redisPinger struct {
	client goredis.UniversalClient
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err() //nolint:wrapcheck // waitReady wraps
}

// ConnectRedis opens a client and waits for the server to answer, with the
// same backoff as ConnectPostgres.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := waitReady(ctx, redisPinger{client: client}, 200*time.Millisecond, "REDIS_CONNECT_FAILED"); err != nil {
		_ = client.Close()
		return nil, oops.With("addr", opts.Addr).Wrap(err)
	}
	return client, nil
}
