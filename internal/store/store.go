// Package store is the Postgres-backed business store behind the
// registered operations: service records, product sales, memberships,
// and daily summaries.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type Store struct {
	pool    *pgxpool.Pool
	summary *summaryCache
}

// New connects to databaseURL and verifies the connection.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("database connected")
	return &Store{pool: pool, summary: newSummaryCache()}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the business tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS service_records (
			id BIGSERIAL PRIMARY KEY,
			customer_name TEXT NOT NULL,
			service_type TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			therapist_name TEXT,
			commission DOUBLE PRECISION NOT NULL DEFAULT 0,
			duration_minutes INT,
			record_date DATE NOT NULL,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_service_records_date ON service_records (record_date)`,
		`CREATE TABLE IF NOT EXISTS product_sales (
			id BIGSERIAL PRIMARY KEY,
			customer_name TEXT,
			product_name TEXT NOT NULL,
			quantity INT NOT NULL,
			unit_price DOUBLE PRECISION NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			record_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_product_sales_date ON product_sales (record_date)`,
		`CREATE TABLE IF NOT EXISTS memberships (
			id BIGSERIAL PRIMARY KEY,
			customer_name TEXT NOT NULL,
			card_type TEXT NOT NULL,
			total_amount DOUBLE PRECISION NOT NULL,
			balance DOUBLE PRECISION NOT NULL,
			sessions_total INT,
			sessions_left INT,
			valid_until DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_valid_until ON memberships (valid_until)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
