package config

import (
	"context"
	"fmt"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/roleAuth/identity"
)

// OpenStore connects the configured identity backend. The returned close
// function releases every resource OpenStore acquired.
func OpenStore(ctx context.Context, sc StoreConfig) (identity.Store, func() error, error) {
	noop := func() error { return nil }

	switch sc.Backend {
	case "memory":
		return identity.NewMemoryStore(), noop, nil

	case "memory-redis":
		// In-process Redis for local runs: exercises the Redis store without a server.
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start in-process redis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return identity.NewRedisStore(client, sc.RedisPrefix), func() error {
			err := client.Close()
			mr.Close()
			return err
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: sc.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return identity.NewRedisStore(client, sc.RedisPrefix), client.Close, nil

	case "postgres", "mysql", "sqlite":
		store, err := identity.OpenSQLStore(ctx, identity.Dialect(sc.Backend), sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}
