// Package store opens the credential store selected by configuration.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/tokenauth/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/tokenauth/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/tokenauth/internal/adapters/repository/redisstore"
	"github.com/vncsmyrnk/tokenauth/internal/config"
	"github.com/vncsmyrnk/tokenauth/internal/core/ports"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open connects to the configured driver. The returned closer releases the
// underlying connection pool.
func Open(ctx context.Context, cfg config.StoreConfig) (ports.SessionStore, io.Closer, error) {
	switch cfg.Driver {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to reach database: %w", err)
		}
		return postgres.NewAccountRepository(db), db, nil
	case config.StoreRedis:
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.NewAccountRepository(rdb, cfg.RedisPrefix), rdb, nil
	case config.StoreMemory:
		return memory.NewAccountRepository(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
