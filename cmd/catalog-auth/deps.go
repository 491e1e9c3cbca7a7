package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/activitymap"
	"github.com/goliatone/go-auth-client/internal/config"
	"github.com/goliatone/go-auth-client/logging"
	"github.com/goliatone/go-auth-client/storage/redisstore"
	"github.com/goliatone/go-auth-client/storage/sqlitestore"
)

// app is the wired client for one command run
type app struct {
	cfg     config.Config
	logger  *logging.Logger
	store   *authclient.Store
	gateway *authclient.Gateway
	closers []func() error
}

func (o *rootOptions) open(ctx context.Context) (*app, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.storage != "" {
		cfg.Storage = o.storage
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		logger: logging.New(logging.Options{
			Level:  cfg.LogLevel,
			Pretty: cfg.LogPretty,
		}),
	}

	storage, closer, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	a.store = authclient.NewStore(storage, authclient.WithStoreLogger(a.logger.With("store")))
	a.store.Restore(ctx)

	a.gateway = authclient.NewGateway(cfg, a.store,
		authclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		authclient.WithGatewayLogger(a.logger.With("gateway")),
		authclient.WithActivitySink(a.activitySink()),
	)

	return a, nil
}

// activitySink writes normalized activity records to the debug log
func (a *app) activitySink() authclient.ActivitySink {
	logger := a.logger.With("activity").Zerolog()
	return authclient.ActivitySinkFunc(func(_ context.Context, event authclient.ActivityEvent) error {
		record := activitymap.Normalize(event, activitymap.WithActorFallback("cli"))
		logger.Debug().
			Str("actor_id", record.ActorID).
			Str("verb", record.Verb).
			Str("object_id", record.ObjectID).
			Fields(record.Metadata).
			Time("occurred_at", record.OccurredAt).
			Msg("activity")
		return nil
	})
}

// Close releases the storage backend
func (a *app) Close() error {
	a.store.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func openStorage(ctx context.Context, cfg config.Config) (authclient.Storage, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return authclient.NewMemoryStorage(), nil, nil
	case config.StorageSQLite:
		s, err := sqlitestore.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		return redisstore.NewWithPrefix(client, cfg.Redis.Prefix), client.Close, nil
	default:
		return authclient.NewFileStorage(cfg.StateDir), nil, nil
	}
}
