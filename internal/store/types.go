package store

import (
	"errors"
	"time"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// Stage names. A job record lives in exactly one stage table at a time.
const (
	StageQueue      = "queue"
	StageProcessing = "processing"
	StageProcessed  = "processed"
	StageFailed     = "unable_to_scrape"
)

// Sub-status markers. Only meaningful while a record is in processing,
// except StatusPending which marks freshly queued records.
const (
	StatusPending  = "pending"
	StatusScraping = "scraping"
	StatusScraped  = "scraped"
	StatusWritten  = "written"
)

// ErrConflict is returned when a stage move collides with an existing row
// for the same URL in the destination table. The source row is left intact.
var ErrConflict = errors.New("record already exists in destination stage")

// JobRecord is a job posting tracked by the pipeline. Fields are populated
// progressively as the record moves through the stages; pointer fields are
// NULL until their stage sets them.
type JobRecord struct {
	ID     int64
	URL    string
	Status string

	JobTitle   *string
	JobCompany *string

	DegreeApproach *string
	DegreeReason   *string

	JobData *types.JobData

	Resume          *string
	ResumeArtifact  *string
	CoverLetter     *string
	CoverArtifact   *string
	Feedback        *string
	Error           *string
	Delivered       bool

	AddedAt    *time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Artifacts bundles the generate-step outputs written back to a record.
type Artifacts struct {
	Resume         string
	ResumeArtifact string
	CoverLetter    string
	CoverArtifact  string
	Feedback       string
}
