package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pipeline/internal/store"
)

func archivedRecord(m *memStore, url string) int64 {
	id := m.enqueue(url)
	_, _ = m.ClaimQueued(context.Background(), id)
	_ = m.UpdateScraped(context.Background(), id, goodJobData())
	_ = m.CompleteProcessing(context.Background(), id)
	return id
}

func TestNotifierSweepDeliversAll(t *testing.T) {
	m := &memStore{}
	id1 := archivedRecord(m, "https://x/job/1")
	id2 := archivedRecord(m, "https://x/job/2")

	emailer := &fakeEmailer{}
	n := NewNotifier(m, emailer)

	require.NoError(t, n.Sweep(context.Background()))
	assert.Equal(t, []int64{id1, id2}, emailer.sent)
	for _, rec := range m.processed {
		assert.True(t, rec.Delivered)
	}
}

func TestNotifierSweepSkipsDelivered(t *testing.T) {
	m := &memStore{}
	id := archivedRecord(m, "https://x/job/1")
	require.NoError(t, m.MarkDelivered(context.Background(), id))

	emailer := &fakeEmailer{}
	n := NewNotifier(m, emailer)

	require.NoError(t, n.Sweep(context.Background()))
	assert.Empty(t, emailer.sent)
}

func TestNotifierSweepRetriesFailures(t *testing.T) {
	m := &memStore{}
	archivedRecord(m, "https://x/job/1")

	emailer := &fakeEmailer{err: fmt.Errorf("connection refused")}
	n := NewNotifier(m, emailer)

	// Failure leaves the flag down; the next sweep retries and succeeds.
	require.NoError(t, n.Sweep(context.Background()))
	assert.False(t, m.processed[0].Delivered)

	emailer.err = nil
	require.NoError(t, n.Sweep(context.Background()))
	assert.True(t, m.processed[0].Delivered)
	assert.Len(t, emailer.sent, 1)
}

func TestNotifierSweepWithoutEmailer(t *testing.T) {
	m := &memStore{}
	archivedRecord(m, "https://x/job/1")

	n := NewNotifier(m, nil)
	require.NoError(t, n.Sweep(context.Background()))
	assert.False(t, m.processed[0].Delivered)
}

func TestNotifierDeliveredAtMostOnce(t *testing.T) {
	m := &memStore{}
	archivedRecord(m, "https://x/job/1")

	emailer := &fakeEmailer{}
	n := NewNotifier(m, emailer)

	for i := 0; i < 3; i++ {
		require.NoError(t, n.Sweep(context.Background()))
	}
	assert.Len(t, emailer.sent, 1)
}

func TestNotifierContinuesPastFailedRecord(t *testing.T) {
	m := &memStore{}
	archivedRecord(m, "https://x/job/1")
	id2 := archivedRecord(m, "https://x/job/2")

	// Fail only the first record.
	emailer := &selectiveEmailer{failID: 1}
	n := NewNotifier(m, emailer)

	require.NoError(t, n.Sweep(context.Background()))
	assert.Equal(t, []int64{id2}, emailer.sent)
	assert.False(t, m.processed[0].Delivered)
	assert.True(t, m.processed[1].Delivered)
}

type selectiveEmailer struct {
	failID int64
	sent   []int64
}

func (s *selectiveEmailer) Deliver(_ context.Context, rec store.JobRecord) error {
	if rec.ID == s.failID {
		return fmt.Errorf("mailbox full")
	}
	s.sent = append(s.sent, rec.ID)
	return nil
}
