// Package pipeline drives job records through their lifecycle: admitted
// URLs are scraped, turned into application documents and archived, with
// failures routed to a terminal stage. All external work goes through
// narrow collaborator interfaces so the state machine itself stays
// testable without a browser, a model or a mail server.
package pipeline

import (
	"context"

	"github.com/jonathan/apply-pipeline/internal/ingest"
	"github.com/jonathan/apply-pipeline/internal/store"
	"github.com/jonathan/apply-pipeline/internal/types"
)

// Store is the persistence surface the pipeline drives.
type Store interface {
	NextQueued(ctx context.Context) (*store.JobRecord, error)
	ClaimQueued(ctx context.Context, id int64) (*store.JobRecord, error)
	UpdateScraped(ctx context.Context, id int64, data *types.JobData) error
	FailProcessing(ctx context.Context, id int64, reason string, data *types.JobData) error

	NextScraped(ctx context.Context) (*store.JobRecord, error)
	SaveClassification(ctx context.Context, id int64, c types.Classification) error
	UpdateWritten(ctx context.Context, id int64, a store.Artifacts) error
	CompleteProcessing(ctx context.Context, id int64) error

	ListUndelivered(ctx context.Context) ([]store.JobRecord, error)
	MarkDelivered(ctx context.Context, id int64) error
}

// Scraper fetches a job posting. A partial JobData may accompany an error
// so failure records keep whatever was collected.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*types.JobData, error)
}

// Writer produces the classification and document drafts.
type Writer interface {
	Classify(ctx context.Context, data *types.JobData) (types.Classification, error)
	GenerateResume(ctx context.Context, data *types.JobData, c types.Classification) (text, feedback string, err error)
	GenerateCoverLetter(ctx context.Context, data *types.JobData, c types.Classification) (string, error)
}

// Renderer turns document markup into an artifact on disk.
type Renderer interface {
	Render(meta types.DocumentMeta, markup string) (string, error)
}

// Emailer delivers a finished record.
type Emailer interface {
	Deliver(ctx context.Context, rec store.JobRecord) error
}

// Gate runs the ingestion sweep.
type Gate interface {
	Sweep(ctx context.Context) (ingest.Report, error)
	MarkDone(ctx context.Context, url string) error
}
