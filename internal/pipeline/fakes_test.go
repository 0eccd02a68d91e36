package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/apply-pipeline/internal/ingest"
	"github.com/jonathan/apply-pipeline/internal/store"
	"github.com/jonathan/apply-pipeline/internal/types"
)

// memStore is an in-memory stand-in for the PostgreSQL store. Records move
// between stage slices the way rows move between stage tables.
type memStore struct {
	nextID     int64
	queue      []store.JobRecord
	processing []store.JobRecord
	processed  []store.JobRecord
	failed     []store.JobRecord
}

func (m *memStore) enqueue(url string) int64 {
	m.nextID++
	now := time.Now()
	m.queue = append(m.queue, store.JobRecord{
		ID: m.nextID, URL: url, Status: store.StatusPending, AddedAt: &now,
	})
	return m.nextID
}

func (m *memStore) NextQueued(context.Context) (*store.JobRecord, error) {
	if len(m.queue) == 0 {
		return nil, nil
	}
	rec := m.queue[0]
	return &rec, nil
}

func (m *memStore) ClaimQueued(_ context.Context, id int64) (*store.JobRecord, error) {
	for i, rec := range m.queue {
		if rec.ID != id {
			continue
		}
		for _, p := range m.processing {
			if p.URL == rec.URL {
				return nil, store.ErrConflict
			}
		}
		m.queue = append(m.queue[:i], m.queue[i+1:]...)
		now := time.Now()
		rec.Status = store.StatusScraping
		rec.StartedAt = &now
		m.processing = append(m.processing, rec)
		claimed := rec
		return &claimed, nil
	}
	return nil, nil
}

func (m *memStore) UpdateScraped(_ context.Context, id int64, data *types.JobData) error {
	for i := range m.processing {
		if m.processing[i].ID == id {
			m.processing[i].JobData = data
			m.processing[i].Status = store.StatusScraped
			return nil
		}
	}
	return fmt.Errorf("record %d not in processing", id)
}

func (m *memStore) FailProcessing(_ context.Context, id int64, reason string, data *types.JobData) error {
	for i, rec := range m.processing {
		if rec.ID != id {
			continue
		}
		m.processing = append(m.processing[:i], m.processing[i+1:]...)
		// A stale terminal row for the same URL is replaced, as the store
		// does, so a requeued URL can fail again.
		for j, old := range m.failed {
			if old.URL == rec.URL {
				m.failed = append(m.failed[:j], m.failed[j+1:]...)
				break
			}
		}
		rec.Error = &reason
		if data != nil {
			rec.JobData = data
		}
		m.failed = append(m.failed, rec)
		return nil
	}
	return fmt.Errorf("record %d not in processing", id)
}

func (m *memStore) NextScraped(context.Context) (*store.JobRecord, error) {
	for _, rec := range m.processing {
		if rec.Status == store.StatusScraped {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) SaveClassification(_ context.Context, id int64, c types.Classification) error {
	for i := range m.processing {
		if m.processing[i].ID == id {
			m.processing[i].DegreeApproach = &c.Approach
			m.processing[i].DegreeReason = &c.Reason
			m.processing[i].JobTitle = &c.Title
			m.processing[i].JobCompany = &c.Company
			return nil
		}
	}
	return fmt.Errorf("record %d not in processing", id)
}

func (m *memStore) UpdateWritten(_ context.Context, id int64, a store.Artifacts) error {
	for i := range m.processing {
		if m.processing[i].ID == id {
			m.processing[i].Resume = &a.Resume
			m.processing[i].ResumeArtifact = &a.ResumeArtifact
			m.processing[i].CoverLetter = &a.CoverLetter
			m.processing[i].CoverArtifact = &a.CoverArtifact
			m.processing[i].Feedback = &a.Feedback
			m.processing[i].Status = store.StatusWritten
			return nil
		}
	}
	return fmt.Errorf("record %d not in processing", id)
}

func (m *memStore) CompleteProcessing(_ context.Context, id int64) error {
	for i, rec := range m.processing {
		if rec.ID != id {
			continue
		}
		m.processing = append(m.processing[:i], m.processing[i+1:]...)
		now := time.Now()
		rec.FinishedAt = &now
		rec.Delivered = false
		m.processed = append(m.processed, rec)
		return nil
	}
	return fmt.Errorf("record %d not in processing", id)
}

func (m *memStore) ListUndelivered(context.Context) ([]store.JobRecord, error) {
	var out []store.JobRecord
	for _, rec := range m.processed {
		if !rec.Delivered {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) MarkDelivered(_ context.Context, id int64) error {
	for i := range m.processed {
		if m.processed[i].ID == id {
			m.processed[i].Delivered = true
			return nil
		}
	}
	return fmt.Errorf("record %d not in processed", id)
}

// stageCount returns how many stages currently hold the URL. The dedup
// invariant requires this to be at most one.
func (m *memStore) stageCount(url string) int {
	n := 0
	for _, stage := range [][]store.JobRecord{m.queue, m.processing, m.processed, m.failed} {
		for _, rec := range stage {
			if rec.URL == url {
				n++
			}
		}
	}
	return n
}

type fakeScraper struct {
	data  *types.JobData
	err   error
	calls int
}

func (f *fakeScraper) Scrape(context.Context, string) (*types.JobData, error) {
	f.calls++
	return f.data, f.err
}

type fakeWriter struct {
	classification types.Classification
	classifyErr    error
	classifyCalls  int
	resume         string
	feedback       string
	cover          string
	generateErr    error
}

func (f *fakeWriter) Classify(context.Context, *types.JobData) (types.Classification, error) {
	f.classifyCalls++
	return f.classification, f.classifyErr
}

func (f *fakeWriter) GenerateResume(context.Context, *types.JobData, types.Classification) (string, string, error) {
	return f.resume, f.feedback, f.generateErr
}

func (f *fakeWriter) GenerateCoverLetter(context.Context, *types.JobData, types.Classification) (string, error) {
	return f.cover, f.generateErr
}

type fakeRenderer struct {
	err   error
	metas []types.DocumentMeta
}

func (f *fakeRenderer) Render(meta types.DocumentMeta, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.metas = append(f.metas, meta)
	return fmt.Sprintf("/out/%d/%s.tex", meta.JobID, meta.Kind), nil
}

type fakeEmailer struct {
	err  error
	sent []int64
}

func (f *fakeEmailer) Deliver(_ context.Context, rec store.JobRecord) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, rec.ID)
	return nil
}

type fakeGate struct {
	report ingest.Report
	done   []string
}

func (f *fakeGate) Sweep(context.Context) (ingest.Report, error) { return f.report, nil }

func (f *fakeGate) MarkDone(_ context.Context, url string) error {
	f.done = append(f.done, url)
	return nil
}

func longDescription(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a' + byte(i%26)
	}
	return string(b)
}
