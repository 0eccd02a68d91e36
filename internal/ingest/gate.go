// Package ingest admits job posting URLs into the queue. It enforces
// global URL uniqueness across the live stages and keeps the external
// source list annotated so restarts never re-ingest handled work.
package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/apply-pipeline/internal/store"
)

// Store is the slice of persistence the gate needs.
type Store interface {
	URLTracked(ctx context.Context, url string) (bool, error)
	InsertQueued(ctx context.Context, url string) (*store.JobRecord, error)
}

// SourceList is the external annotated URL list, typically a gist.
type SourceList interface {
	Fetch(ctx context.Context) (string, error)
	Update(ctx context.Context, content string) error
}

// Report summarizes one bulk sweep.
type Report struct {
	Queued        int
	AlreadyQueued int
	Done          int
}

// Gate admits URLs into the pipeline.
type Gate struct {
	store  Store
	source SourceList // nil when no external list is configured

	now func() time.Time
}

// New returns a Gate. source may be nil.
func New(st Store, source SourceList) *Gate {
	return &Gate{store: st, source: source, now: time.Now}
}

// Admit inserts a single URL into the queue. The second return reports
// whether the URL was newly added; an already-tracked URL is a silent
// no-op, not an error.
func (g *Gate) Admit(ctx context.Context, url string) (bool, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return false, fmt.Errorf("empty URL")
	}

	tracked, err := g.store.URLTracked(ctx, url)
	if err != nil {
		return false, err
	}
	if tracked {
		return false, nil
	}

	if _, err := g.store.InsertQueued(ctx, url); err != nil {
		// Lost a race with another writer; treat like the tracked case.
		if err == store.ErrConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Sweep pulls the source list, admits unmarked URLs, rewrites the list
// with updated markers and reports what happened. Lines already marked
// done are skipped without a store lookup.
func (g *Gate) Sweep(ctx context.Context) (Report, error) {
	var report Report
	if g.source == nil {
		return report, nil
	}

	content, err := g.source.Fetch(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch source list: %w", err)
	}

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	changed := false

	for _, raw := range lines {
		l := parseLine(raw)
		if l.URL == "" {
			out = append(out, raw)
			continue
		}

		switch l.Marker {
		case markerDone:
			report.Done++
			out = append(out, raw)
		case markerQueue:
			report.AlreadyQueued++
			out = append(out, raw)
		default:
			added, err := g.Admit(ctx, l.URL)
			if err != nil {
				// Leave the line unmarked so the next sweep retries it.
				log.Printf("[INGEST] Failed to admit %s: %v", l.URL, err)
				out = append(out, raw)
				continue
			}
			if !added {
				// Tracked but not admitted this sweep, e.g. finished in a
				// run before the list carried markers. Marking it QUEUE
				// would strand it there, since only a fresh completion
				// flips a line to DONE. Leave it for MarkDone.
				report.AlreadyQueued++
				out = append(out, raw)
				continue
			}
			report.Queued++
			out = append(out, annotate(markerQueue, l.URL, g.now()))
			changed = true
		}
	}

	if changed {
		if err := g.source.Update(ctx, strings.Join(out, "\n")); err != nil {
			return report, fmt.Errorf("failed to write source list: %w", err)
		}
	}
	return report, nil
}

// MarkDone rewrites the source list entry for url with a done marker.
// Best effort; the caller logs failures and moves on.
func (g *Gate) MarkDone(ctx context.Context, url string) error {
	if g.source == nil {
		return nil
	}

	content, err := g.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch source list: %w", err)
	}

	lines := strings.Split(content, "\n")
	changed := false
	for i, raw := range lines {
		l := parseLine(raw)
		if l.URL == url && l.Marker != markerDone {
			lines[i] = annotate(markerDone, url, g.now())
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if err := g.source.Update(ctx, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write source list: %w", err)
	}
	return nil
}
