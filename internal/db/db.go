package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxConns        = 10
	minConns        = 1
	maxConnIdle     = 5 * time.Minute
	connectAttempts = 5
)

// NewPool opens the pool and waits for the database to answer. Compose and
// k8s often start the API before postgres accepts connections, so the first
// ping is retried with a short linear backoff.
func NewPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnIdleTime = maxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		cancel()

		if err == nil {
			return pool, nil
		}
		if attempt == connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping db: %w", ctx.Err())
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("ping db after %d attempts: %w", connectAttempts, err)
}
