package database

import (
	"context"
	"fmt"
	"time"

	"agrolinq/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PoolConfig translates cfg into pgxpool settings. Durations in cfg are
// seconds.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pc.MaxConns = int32(cfg.MaxConnections)
	pc.MinConns = int32(cfg.MinConnections)
	pc.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	pc.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Second
	pc.HealthCheckPeriod = time.Duration(cfg.HealthCheckPeriod) * time.Second

	return pc, nil
}

// Open connects to the marketplace database, verifies the connection and
// applies the embedded schema. The returned pool is ready for the
// repositories; the caller closes it.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.With().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger()

	log.Info().
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Dur("max_conn_idle_time", pc.MaxConnIdleTime).
		Dur("health_check_period", pc.HealthCheckPeriod).
		Msg("opening marketplace database")

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().Msg("marketplace database ready")

	return pool, nil
}
