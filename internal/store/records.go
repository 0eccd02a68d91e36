package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// InsertQueued creates a new queue record for a URL. The caller is expected
// to have checked URLTracked first; a duplicate insert returns ErrConflict.
func (s *Store) InsertQueued(ctx context.Context, url string) (*JobRecord, error) {
	var rec JobRecord
	var addedAt time.Time

	err := s.pool.QueryRow(ctx,
		`INSERT INTO queue (url, status) VALUES ($1, $2)
		 RETURNING id, url, status, added_at`,
		url, StatusPending,
	).Scan(&rec.ID, &rec.URL, &rec.Status, &addedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to insert queue record: %w", err)
	}

	rec.AddedAt = &addedAt
	return &rec, nil
}

// URLTracked reports whether a URL already exists in queue, processing or
// processed. Failed records are deliberately excluded: an operator may
// requeue a URL that previously could not be scraped.
func (s *Store) URLTracked(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM queue WHERE url = $1
			UNION
			SELECT 1 FROM processing WHERE url = $1
			UNION
			SELECT 1 FROM processed WHERE url = $1
		)`,
		url,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check url: %w", err)
	}
	return exists, nil
}

// NextQueued returns the oldest queue record, or nil when the queue is empty.
func (s *Store) NextQueued(ctx context.Context) (*JobRecord, error) {
	var rec JobRecord
	var addedAt time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, url, status, added_at FROM queue ORDER BY id ASC LIMIT 1`,
	).Scan(&rec.ID, &rec.URL, &rec.Status, &addedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next queued record: %w", err)
	}

	rec.AddedAt = &addedAt
	return &rec, nil
}

// NextScraped returns the oldest processing record ready for generation,
// or nil when none is ready.
func (s *Store) NextScraped(ctx context.Context) (*JobRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, `+recordColumns+`, status, added_at, started_at
		 FROM processing WHERE status = $1 ORDER BY id ASC LIMIT 1`,
		StatusScraped,
	)

	rec, err := scanProcessing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next scraped record: %w", err)
	}
	return rec, nil
}

// UpdateScraped stores the scrape result on a processing record and marks it
// ready for generation.
func (s *Store) UpdateScraped(ctx context.Context, id int64, data *types.JobData) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE processing SET job_data = $1, status = $2 WHERE id = $3`,
		dataJSON, StatusScraped, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update scraped record: %w", err)
	}
	return nil
}

// SaveClassification persists the one-time degree-approach decision together
// with the title and company the classifier discovered. Repeated ticks see a
// non-NULL degree_approach and never re-decide.
func (s *Store) SaveClassification(ctx context.Context, id int64, c types.Classification) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE processing
		 SET degree_approach = $1, degree_reason = $2, job_title = $3, job_company = $4
		 WHERE id = $5`,
		c.Approach, c.Reason, c.Title, c.Company, id,
	)
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	return nil
}

// UpdateWritten stores the generation outputs on a processing record.
func (s *Store) UpdateWritten(ctx context.Context, id int64, a Artifacts) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE processing
		 SET resume = $1, resume_artifact = $2, cover_letter = $3,
		     cover_letter_artifact = $4, feedback = $5, status = $6
		 WHERE id = $7`,
		a.Resume, a.ResumeArtifact, a.CoverLetter, a.CoverArtifact, a.Feedback,
		StatusWritten, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update written record: %w", err)
	}
	return nil
}

// ListUndelivered returns all processed records that have not been emailed.
func (s *Store) ListUndelivered(ctx context.Context) ([]JobRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, `+recordColumns+`, status, delivered, added_at, started_at, finished_at
		 FROM processed WHERE delivered = FALSE ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list undelivered records: %w", err)
	}
	defer rows.Close()

	var recs []JobRecord
	for rows.Next() {
		rec, err := scanProcessed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processed record: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// MarkDelivered flips the delivered flag on a processed record.
func (s *Store) MarkDelivered(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE processed SET delivered = TRUE WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark record delivered: %w", err)
	}
	return nil
}

// CountStage returns the number of records in a stage table.
func (s *Store) CountStage(ctx context.Context, stage string) (int, error) {
	table, err := stageTable(stage)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", stage, err)
	}
	return n, nil
}

// CountStuckProcessing returns how many processing records entered the stage
// longer ago than the given age. These are records wedged by an unclassified
// error and need operator attention.
func (s *Store) CountStuckProcessing(ctx context.Context, age time.Duration) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM processing WHERE started_at < NOW() - make_interval(secs => $1)`,
		age.Seconds(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stuck records: %w", err)
	}
	return n, nil
}

// StageSummary is a compact per-record view used by the list command.
type StageSummary struct {
	ID        int64
	URL       string
	Status    string
	JobTitle  string
	Error     string
	Delivered bool
}

// ListStage returns summaries of records in a stage, oldest first.
func (s *Store) ListStage(ctx context.Context, stage string, limit int) ([]StageSummary, error) {
	table, err := stageTable(stage)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var query string
	switch stage {
	case StageQueue:
		query = `SELECT id, url, status, '', '', FALSE FROM queue ORDER BY id ASC LIMIT $1`
	case StageProcessing:
		query = `SELECT id, url, status, COALESCE(job_title, ''), '', FALSE
			 FROM processing ORDER BY id ASC LIMIT $1`
	case StageProcessed:
		query = `SELECT id, url, COALESCE(status, ''), COALESCE(job_title, ''), '', delivered
			 FROM processed ORDER BY id ASC LIMIT $1`
	case StageFailed:
		query = `SELECT id, url, '', COALESCE(job_title, ''), COALESCE(error, ''), FALSE
			 FROM unable_to_scrape ORDER BY id ASC LIMIT $1`
	}

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var out []StageSummary
	for rows.Next() {
		var sum StageSummary
		if err := rows.Scan(&sum.ID, &sum.URL, &sum.Status, &sum.JobTitle, &sum.Error, &sum.Delivered); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func stageTable(stage string) (string, error) {
	switch stage {
	case StageQueue, StageProcessing, StageProcessed, StageFailed:
		return stage, nil
	default:
		return "", fmt.Errorf("unknown stage %q", stage)
	}
}

// scanProcessing scans a full processing row.
func scanProcessing(row pgx.Row) (*JobRecord, error) {
	var rec JobRecord
	var dataJSON []byte

	err := row.Scan(&rec.ID, &rec.URL, &rec.JobTitle, &rec.JobCompany,
		&rec.DegreeApproach, &rec.DegreeReason, &dataJSON,
		&rec.Resume, &rec.ResumeArtifact, &rec.CoverLetter, &rec.CoverArtifact,
		&rec.Feedback, &rec.Status, &rec.AddedAt, &rec.StartedAt)
	if err != nil {
		return nil, err
	}

	if err := unmarshalJobData(dataJSON, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanProcessed scans a full processed row.
func scanProcessed(row pgx.Row) (*JobRecord, error) {
	var rec JobRecord
	var status *string
	var dataJSON []byte

	err := row.Scan(&rec.ID, &rec.URL, &rec.JobTitle, &rec.JobCompany,
		&rec.DegreeApproach, &rec.DegreeReason, &dataJSON,
		&rec.Resume, &rec.ResumeArtifact, &rec.CoverLetter, &rec.CoverArtifact,
		&rec.Feedback, &status, &rec.Delivered, &rec.AddedAt, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return nil, err
	}

	if status != nil {
		rec.Status = *status
	}
	if err := unmarshalJobData(dataJSON, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func unmarshalJobData(dataJSON []byte, rec *JobRecord) error {
	if len(dataJSON) == 0 {
		return nil
	}
	var data types.JobData
	if err := json.Unmarshal(dataJSON, &data); err != nil {
		return fmt.Errorf("failed to parse job data for record %d: %w", rec.ID, err)
	}
	rec.JobData = &data
	return nil
}
