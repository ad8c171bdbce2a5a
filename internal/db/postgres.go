package db

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/MediTrack-HMS/visit-queue-service/internal/config"
)

// Connect creates a connection to PostgreSQL with OpenTelemetry instrumentation.
func Connect(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := otelsql.Open("postgres", cfg.DSN(),
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBName(cfg.Name),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Register database stats for metrics
	_, err = otelsql.RegisterDBStatsMetrics(db,
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBName(cfg.Name),
		),
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to register database stats metrics")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Short-lived acquisitions per request; a modest pool is plenty.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	log.Info().Str("database", cfg.Name).Msg("connected to PostgreSQL")
	return db, nil
}
