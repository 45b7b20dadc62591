package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"lumigente/internal/platform/config"
)

var ErrUnavailable = errors.New("database unavailable")

// DialFunc opens a pool and proves it is usable.
type DialFunc func(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error)

// Connect opens the primary pool, retrying with capped exponential backoff.
// When every attempt fails it tries the fallback pool settings once.
func Connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	return ConnectWith(ctx, cfg, Dial)
}

func ConnectWith(ctx context.Context, cfg config.Config, dial DialFunc) (*pgxpool.Pool, error) {
	primary, err := PrimaryPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	var pool *pgxpool.Pool
	attempt := 0
	op := func() error {
		attempt++
		p, err := dial(ctx, primary)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("retryIn", wait).Msg("database connect failed")
	}

	retries := uint64(max(cfg.DBConnectAttempts, 1) - 1)
	primaryErr := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(newBackOff(cfg), retries), ctx), notify)
	if primaryErr == nil {
		return pool, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}

	log.Warn().Err(primaryErr).Int("attempts", attempt).Msg("primary database settings exhausted, trying fallback")
	fallback, err := FallbackPoolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err = dial(ctx, fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: primary: %v; fallback: %v", ErrUnavailable, primaryErr, err)
	}
	log.Info().Msg("connected with fallback database settings")
	return pool, nil
}

func newBackOff(cfg config.Config) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.DBInitialBackoff
	b.MaxInterval = cfg.DBMaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}

func PrimaryPoolConfig(cfg config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout
	return poolCfg, nil
}

func FallbackPoolConfig(cfg config.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = int32(cfg.DBFallbackMaxConns)
	poolCfg.MinConns = 0
	poolCfg.MaxConnIdleTime = cfg.DBFallbackIdleTimeout
	poolCfg.ConnConfig.ConnectTimeout = cfg.DBFallbackConnectTimeout
	return poolCfg, nil
}

// Dial creates the pool and pings it so connection failures surface here
// rather than on the first query.
func Dial(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, poolCfg.ConnConfig.ConnectTimeout+time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
