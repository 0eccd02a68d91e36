package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Stage moves run on a cancellation-detached context: once a move begins it
// must commit or roll back as a unit, and a shutdown signal arriving
// mid-move must not leave the record deleted from one table and absent from
// the other.
func (s *Store) beginMove(ctx context.Context) (context.Context, pgx.Tx, error) {
	ctx = context.WithoutCancel(ctx)
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return ctx, tx, nil
}

// ClaimQueued moves a queue record into processing and returns the claimed
// record. The delete and insert commit together; if the URL already has a
// processing row the transaction rolls back, the queue row survives, and
// ErrConflict is returned.
func (s *Store) ClaimQueued(ctx context.Context, id int64) (*JobRecord, error) {
	ctx, tx, err := s.beginMove(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rec JobRecord
	err = tx.QueryRow(ctx,
		`DELETE FROM queue WHERE id = $1 RETURNING id, url, added_at`,
		id,
	).Scan(&rec.ID, &rec.URL, &rec.AddedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to remove queue record %d: %w", id, err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO processing (id, url, status, added_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING status, started_at`,
		rec.ID, rec.URL, StatusScraping, rec.AddedAt,
	).Scan(&rec.Status, &rec.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to insert processing record %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim of record %d: %w", id, err)
	}
	return &rec, nil
}

// CompleteProcessing moves a processing record into processed, stamping
// finished_at and starting with delivered=false. All columns are copied so
// the record keeps its id and full history.
func (s *Store) CompleteProcessing(ctx context.Context, id int64) error {
	ctx, tx, err := s.beginMove(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO processed (id, `+recordColumns+`, status, delivered, added_at, started_at, finished_at)
		 SELECT id, `+recordColumns+`, status, FALSE, added_at, started_at, NOW()
		 FROM processing WHERE id = $1`,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert processed record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("processing record %d not found", id)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM processing WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove processing record %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion of record %d: %w", id, err)
	}
	return nil
}

// FailProcessing moves a processing record into unable_to_scrape with the
// failure reason, keeping its id and whatever partial job data the scrape
// collected. This is a terminal move; no automatic retry follows. A stale
// terminal row for the same URL, left by a failure before the operator
// requeued it, is replaced so the fresh failure always lands.
func (s *Store) FailProcessing(ctx context.Context, id int64, reason string, data *types.JobData) error {
	ctx, tx, err := s.beginMove(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM unable_to_scrape
		 WHERE url = (SELECT url FROM processing WHERE id = $1)`, id,
	); err != nil {
		return fmt.Errorf("failed to clear stale failed record for %d: %w", id, err)
	}

	if data != nil {
		dataJSON, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal job data: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE processing SET job_data = $1 WHERE id = $2`, dataJSON, id,
		); err != nil {
			return fmt.Errorf("failed to store partial job data for record %d: %w", id, err)
		}
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO unable_to_scrape (id, `+recordColumns+`, error, added_at, started_at)
		 SELECT id, `+recordColumns+`, $2, added_at, started_at
		 FROM processing WHERE id = $1`,
		id, reason,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to insert failed record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("processing record %d not found", id)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM processing WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to remove processing record %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit failure of record %d: %w", id, err)
	}
	return nil
}
