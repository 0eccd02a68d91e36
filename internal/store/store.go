// Package store provides PostgreSQL persistence for the job pipeline.
// Records are physically partitioned into four stage tables; every
// transition between stages runs through a single transactional move so a
// URL can never exist in two stages at once, even across a crash.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// recordColumns is the shared column set of the processing-and-later tables.
const recordColumns = `url, job_title, job_company, degree_approach, degree_reason,
	job_data, resume, resume_artifact, cover_letter, cover_letter_artifact, feedback`

// Migrate creates the stage tables and the settings table if they do not
// exist. Only queue assigns ids; the later tables always receive the id the
// record was born with.
func (s *Store) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS queue (
			id BIGSERIAL PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS processing (
			id BIGINT PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'scraping',
			job_title TEXT,
			job_company TEXT,
			degree_approach TEXT,
			degree_reason TEXT,
			job_data JSONB,
			resume TEXT,
			resume_artifact TEXT,
			cover_letter TEXT,
			cover_letter_artifact TEXT,
			feedback TEXT,
			added_at TIMESTAMPTZ,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS processed (
			id BIGINT PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			status TEXT,
			job_title TEXT,
			job_company TEXT,
			degree_approach TEXT,
			degree_reason TEXT,
			job_data JSONB,
			resume TEXT,
			resume_artifact TEXT,
			cover_letter TEXT,
			cover_letter_artifact TEXT,
			feedback TEXT,
			delivered BOOLEAN NOT NULL DEFAULT FALSE,
			added_at TIMESTAMPTZ,
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS unable_to_scrape (
			id BIGINT PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			error TEXT,
			job_title TEXT,
			job_company TEXT,
			degree_approach TEXT,
			degree_reason TEXT,
			job_data JSONB,
			resume TEXT,
			resume_artifact TEXT,
			cover_letter TEXT,
			cover_letter_artifact TEXT,
			feedback TEXT,
			added_at TIMESTAMPTZ,
			started_at TIMESTAMPTZ,
			failed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
