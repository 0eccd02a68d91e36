package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jonathan/apply-pipeline/internal/store"
	"github.com/jonathan/apply-pipeline/internal/types"
)

// Advancer executes the per-tick scrape and generate steps.
type Advancer struct {
	store    Store
	scraper  Scraper
	writer   Writer
	renderer Renderer
	gate     Gate // nil when no external source list is configured

	fullName        string
	minContentChars int
}

// NewAdvancer wires the stage advancer. gate may be nil.
func NewAdvancer(st Store, scraper Scraper, writer Writer, renderer Renderer, gate Gate, fullName string, minContentChars int) *Advancer {
	return &Advancer{
		store:           st,
		scraper:         scraper,
		writer:          writer,
		renderer:        renderer,
		gate:            gate,
		fullName:        fullName,
		minContentChars: minContentChars,
	}
}

// ScrapeStep claims the oldest queued record, scrapes it and either marks
// it scraped or routes it to the failure terminal. At most one record is
// touched per call. A nil return with no work done is normal.
func (a *Advancer) ScrapeStep(ctx context.Context) error {
	next, err := a.store.NextQueued(ctx)
	if err != nil {
		return fmt.Errorf("failed to select queued record: %w", err)
	}
	if next == nil {
		return nil
	}

	rec, err := a.store.ClaimQueued(ctx, next.ID)
	if err != nil {
		if err == store.ErrConflict {
			// The URL is already in flight; leave the queue row for the
			// operator rather than losing it.
			log.Printf("[SCRAPE] Record %d conflicts with an in-flight record, skipping", next.ID)
			return nil
		}
		return fmt.Errorf("failed to claim record %d: %w", next.ID, err)
	}
	if rec == nil {
		return nil
	}

	log.Printf("[SCRAPE] Scraping record %d: %s", rec.ID, rec.URL)
	data, scrapeErr := a.scraper.Scrape(ctx, rec.URL)

	// An interrupted scrape says nothing about the posting. Leave the
	// record in processing instead of terminal-failing it; the failure
	// terminal is reserved for verdicts about page content.
	if scrapeErr != nil && (ctx.Err() != nil || errors.Is(scrapeErr, context.Canceled)) {
		return fmt.Errorf("scrape of record %d interrupted: %w", rec.ID, scrapeErr)
	}

	if reason, failed := ClassifyScrape(data, scrapeErr, a.minContentChars); failed {
		log.Printf("[SCRAPE] Record %d failed: %s", rec.ID, reason)
		if err := a.store.FailProcessing(ctx, rec.ID, reason, data); err != nil {
			return fmt.Errorf("failed to fail record %d: %w", rec.ID, err)
		}
		return nil
	}

	if err := a.store.UpdateScraped(ctx, rec.ID, data); err != nil {
		return fmt.Errorf("failed to store scrape result for record %d: %w", rec.ID, err)
	}
	log.Printf("[SCRAPE] Record %d scraped: %q (%d chars)", rec.ID, data.Title, data.ContentLength())
	return nil
}

// GenerateStep takes the oldest scraped record through classification,
// document generation and rendering, then archives it. Errors leave the
// record in processing for the next operator look; nothing retries
// automatically.
func (a *Advancer) GenerateStep(ctx context.Context) error {
	rec, err := a.store.NextScraped(ctx)
	if err != nil {
		return fmt.Errorf("failed to select scraped record: %w", err)
	}
	if rec == nil {
		return nil
	}

	c, err := a.classification(ctx, rec)
	if err != nil {
		return err
	}

	log.Printf("[GENERATE] Writing documents for record %d (%s degree)", rec.ID, c.Approach)

	resume, feedback, err := a.writer.GenerateResume(ctx, rec.JobData, c)
	if err != nil {
		return fmt.Errorf("failed to generate resume for record %d: %w", rec.ID, err)
	}
	resumePath, err := a.renderer.Render(types.DocumentMeta{
		JobID:    rec.ID,
		Kind:     types.DocumentResume,
		Author:   a.fullName,
		JobTitle: c.Title,
	}, resume)
	if err != nil {
		return fmt.Errorf("failed to render resume for record %d: %w", rec.ID, err)
	}

	cover, err := a.writer.GenerateCoverLetter(ctx, rec.JobData, c)
	if err != nil {
		return fmt.Errorf("failed to generate cover letter for record %d: %w", rec.ID, err)
	}
	coverPath, err := a.renderer.Render(types.DocumentMeta{
		JobID:    rec.ID,
		Kind:     types.DocumentCoverLetter,
		Author:   a.fullName,
		JobTitle: c.Title,
	}, cover)
	if err != nil {
		return fmt.Errorf("failed to render cover letter for record %d: %w", rec.ID, err)
	}

	err = a.store.UpdateWritten(ctx, rec.ID, store.Artifacts{
		Resume:         resume,
		ResumeArtifact: resumePath,
		CoverLetter:    cover,
		CoverArtifact:  coverPath,
		Feedback:       feedback,
	})
	if err != nil {
		return fmt.Errorf("failed to store documents for record %d: %w", rec.ID, err)
	}

	if err := a.store.CompleteProcessing(ctx, rec.ID); err != nil {
		return fmt.Errorf("failed to archive record %d: %w", rec.ID, err)
	}
	log.Printf("[GENERATE] Record %d archived", rec.ID)

	if a.gate != nil {
		if err := a.gate.MarkDone(ctx, rec.URL); err != nil {
			// Best effort; the record is already archived.
			log.Printf("[GENERATE] Failed to mark %s done in source list: %v", rec.URL, err)
		}
	}
	return nil
}

// classification returns the record's degree decision, computing and
// persisting it on first sight. Later ticks reuse the stored decision so
// the call is made exactly once per record.
func (a *Advancer) classification(ctx context.Context, rec *store.JobRecord) (types.Classification, error) {
	if rec.DegreeApproach != nil {
		c := types.Classification{Approach: *rec.DegreeApproach}
		if rec.DegreeReason != nil {
			c.Reason = *rec.DegreeReason
		}
		if rec.JobTitle != nil {
			c.Title = *rec.JobTitle
		}
		if rec.JobCompany != nil {
			c.Company = *rec.JobCompany
		}
		return c, nil
	}

	c, err := a.writer.Classify(ctx, rec.JobData)
	if err != nil {
		return types.Classification{}, fmt.Errorf("failed to classify record %d: %w", rec.ID, err)
	}
	if err := a.store.SaveClassification(ctx, rec.ID, c); err != nil {
		return types.Classification{}, fmt.Errorf("failed to save classification for record %d: %w", rec.ID, err)
	}
	log.Printf("[GENERATE] Record %d classified: %s (%s)", rec.ID, c.Approach, c.Reason)
	return c, nil
}
