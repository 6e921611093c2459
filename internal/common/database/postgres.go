// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vc-readiness/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// GetDB returns the underlying *sql.DB
func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}

// schemaStatements create the evaluation and payment tables.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vc_evaluations (
		id                  TEXT PRIMARY KEY,
		client_key          TEXT NOT NULL,
		stage               TEXT NOT NULL,
		form_data           JSONB NOT NULL,
		total_score         DOUBLE PRECISION NOT NULL,
		section_scores      JSONB NOT NULL,
		verdict             JSONB NOT NULL,
		completion          JSONB NOT NULL,
		executive_summary   TEXT NOT NULL,
		premium_unlocked    BOOLEAN NOT NULL DEFAULT FALSE,
		deep_analysis       TEXT,
		recommendations     JSONB,
		created_at          TIMESTAMPTZ NOT NULL,
		unlocked_at         TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vc_evaluations_client_key ON vc_evaluations (client_key, created_at)`,
	`CREATE TABLE IF NOT EXISTS vc_payment_records (
		id                  TEXT PRIMARY KEY,
		evaluation_id       TEXT NOT NULL REFERENCES vc_evaluations(id),
		payment_intent_id   TEXT NOT NULL,
		amount_cents        BIGINT NOT NULL,
		currency            TEXT NOT NULL,
		status              TEXT NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vc_payment_records_intent ON vc_payment_records (payment_intent_id)`,
}

// EnsureSchema creates the tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
