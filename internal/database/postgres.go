package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
)

// NewPostgresPool creates and validates the pool backing users and exam
// sessions. Slow or failing queries are reported through log.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
		Logger:   queryLogger(log.With().Str("component", "postgres").Logger()),
		LogLevel: tracelog.LogLevelWarn,
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", cfg.MaxDBConns).
		Str("database", poolCfg.ConnConfig.Database).
		Msg("PostgreSQL connected")

	return pool, nil
}

// queryLogger forwards pgx trace events to zerolog.
func queryLogger(log zerolog.Logger) tracelog.Logger {
	return tracelog.LoggerFunc(func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		var e *zerolog.Event
		switch level {
		case tracelog.LogLevelError:
			e = log.Error()
		case tracelog.LogLevelWarn:
			e = log.Warn()
		case tracelog.LogLevelInfo:
			e = log.Info()
		default:
			e = log.Debug()
		}
		e.Fields(data).Msg(msg)
	})
}
