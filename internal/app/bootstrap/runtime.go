// Package bootstrap builds the runtime dependencies selected by configuration.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/spa-ledger/internal/config"
	"github.com/wolfman30/spa-ledger/internal/session"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available; chat sessions fall back to memory", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore keeps chat sessions in Redis, or in process memory when
// no client is available.
func BuildSessionStore(client *redis.Client, cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if client == nil {
		if logger != nil {
			logger.Warn("using in-memory chat sessions")
		}
		return session.NewMemoryStore()
	}
	ttl := session.DefaultTTL
	if cfg != nil && cfg.SessionTTL > 0 {
		ttl = cfg.SessionTTL
	}
	return session.NewRedisStore(client, ttl)
}

// BuildTabularStore opens the appointment store named by STORE_BACKEND. The
// returned close func is never nil.
func BuildTabularStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (store.TabularStore, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.StoreBackend {
	case appconfig.StoreSheets:
		creds, err := store.DecodeCredentials(cfg.GoogleCredsBase64)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: sheets store: %w", err)
		}
		st, err := store.NewSheetsStore(ctx, store.SheetsConfig{
			SpreadsheetID:   cfg.SheetID,
			SheetName:       cfg.SheetName,
			CredentialsJSON: creds,
		}, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: sheets store: %w", err)
		}
		logger.Info("appointment store ready", "backend", cfg.StoreBackend, "sheet", cfg.SheetName)
		return st, noop, nil

	case appconfig.StorePostgres:
		pool, err := connectPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("appointment store ready", "backend", cfg.StoreBackend)
		return store.NewPostgresStore(pool), pool.Close, nil

	case appconfig.StoreMemory:
		logger.Warn("appointment store is in memory; records are lost on restart")
		return store.NewMemoryStore(), noop, nil
	}
	return nil, noop, fmt.Errorf("bootstrap: unknown store backend %q", cfg.StoreBackend)
}

func connectPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("bootstrap: postgres store: %w: DATABASE_URL is empty", store.ErrStoreUnavailable)
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: postgres store: %w: %w", store.ErrStoreUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: postgres ping: %w: %w", store.ErrStoreUnavailable, err)
	}
	return pool, nil
}
