package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrations are ordered, idempotent setup statements. Later entries exist
// because earlier deployments shipped without those columns; keeping them as
// ADD COLUMN IF NOT EXISTS lets the same list run against any vintage of the
// schema.
var migrations = []string{
	`CREATE SCHEMA IF NOT EXISTS hospital`,

	`CREATE TABLE IF NOT EXISTS hospital.patients (
		patient_id         SERIAL PRIMARY KEY,
		national_id        VARCHAR(12) NOT NULL UNIQUE,
		name               TEXT NOT NULL,
		age                INT,
		gender             CHAR(1),
		address            TEXT,
		phone              VARCHAR(15),
		department_history TEXT NOT NULL DEFAULT '',
		visit_count        INT NOT NULL DEFAULT 1,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS hospital.queue_tickets (
		queue_id     SERIAL PRIMARY KEY,
		patient_id   INT NOT NULL,
		national_id  VARCHAR(12) NOT NULL,
		patient_name TEXT NOT NULL,
		department   TEXT NOT NULL,
		status       VARCHAR(16) NOT NULL DEFAULT 'WAITING',
		queue_number INT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Ordering index for active-queue listings.
	`CREATE INDEX IF NOT EXISTS idx_queue_dept_status_number
		ON hospital.queue_tickets (department, status, queue_number)`,

	// Columns added after the initial rollout.
	`ALTER TABLE hospital.patients ADD COLUMN IF NOT EXISTS visit_count INT NOT NULL DEFAULT 1`,
	`ALTER TABLE hospital.patients ADD COLUMN IF NOT EXISTS created_at TIMESTAMPTZ NOT NULL DEFAULT now()`,
}

// Migrate runs the ordered schema setup. Safe to run on every startup and at
// deployment time.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("schema migrations applied")
	return nil
}
