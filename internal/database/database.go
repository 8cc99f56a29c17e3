package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"redeemly/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const applicationName = "redeemly"

// NewPool opens the PostgreSQL pool backing the coupon store. Every connection
// carries the configured statement and idle-in-transaction limits so a stalled
// redemption cannot keep a coupon row locked past them.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With().Str("component", "database").Logger()

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	for name, value := range sessionParams(cfg) {
		poolConfig.ConnConfig.RuntimeParams[name] = value
	}
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		logger.Debug().
			Uint32("pid", conn.PgConn().PID()).
			Str("application_name", conn.PgConn().ParameterStatus("application_name")).
			Msg("database connection established")
		return nil
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int("max_connections", cfg.MaxConnections).
		Dur("statement_timeout", cfg.StatementTimeout).
		Dur("idle_in_tx_timeout", cfg.IdleInTxTimeout).
		Msg("creating database connection pool")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("database connection pool ready")

	return pool, nil
}

// sessionParams returns the startup parameters sent on every new connection.
// Postgres reads bare integers for these settings as milliseconds.
func sessionParams(cfg config.DatabaseConfig) map[string]string {
	params := map[string]string{"application_name": applicationName}
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}
	if cfg.IdleInTxTimeout > 0 {
		params["idle_in_transaction_session_timeout"] = strconv.FormatInt(cfg.IdleInTxTimeout.Milliseconds(), 10)
	}
	return params
}
