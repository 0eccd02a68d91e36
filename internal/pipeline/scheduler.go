package pipeline

import (
	"context"
	"log"
	"time"
)

// DefaultStuckAge is how long a record may sit in processing before the
// scheduler starts calling it out in the logs.
const DefaultStuckAge = time.Hour

// StuckCounter reports records wedged in processing by an unclassified
// error.
type StuckCounter interface {
	CountStuckProcessing(ctx context.Context, age time.Duration) (int, error)
}

// Scheduler runs the pipeline on a fixed interval, single-threaded. One
// tick runs the ingestion sweep, at most one scrape step, at most one
// generate step and a delivery sweep, in that order. A slow external call
// delays the next tick; ticks never overlap.
type Scheduler struct {
	gate     Gate // nil when no external source list is configured
	advancer *Advancer
	notifier *Notifier
	stuck    StuckCounter

	Interval time.Duration
	StuckAge time.Duration
}

// NewScheduler wires the scheduler loop.
func NewScheduler(gate Gate, advancer *Advancer, notifier *Notifier, stuck StuckCounter, interval time.Duration) *Scheduler {
	return &Scheduler{
		gate:     gate,
		advancer: advancer,
		notifier: notifier,
		stuck:    stuck,
		Interval: interval,
		StuckAge: DefaultStuckAge,
	}
}

// Run loops until ctx is cancelled. Cancellation is honored between
// ticks; a tick in flight always finishes, so stage moves are never torn
// by shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("[SCHEDULER] Starting, interval %s", s.Interval)
	for {
		s.Tick(ctx)

		select {
		case <-ctx.Done():
			log.Printf("[SCHEDULER] Stopping: %v", ctx.Err())
			return ctx.Err()
		case <-time.After(s.Interval):
		}
	}
}

// Tick runs one full pipeline pass. Step errors are logged, never fatal;
// a record hit by an unclassified error stays where it is until an
// operator intervenes.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.gate != nil {
		report, err := s.gate.Sweep(ctx)
		if err != nil {
			log.Printf("[SCHEDULER] Ingestion sweep failed: %v", err)
		} else if report.Queued > 0 {
			log.Printf("[SCHEDULER] Ingested %d new, %d already queued, %d done",
				report.Queued, report.AlreadyQueued, report.Done)
		}
	}

	if err := s.advancer.ScrapeStep(ctx); err != nil {
		log.Printf("[SCHEDULER] Scrape step failed, record left in place: %v", err)
	}

	if err := s.advancer.GenerateStep(ctx); err != nil {
		log.Printf("[SCHEDULER] Generate step failed, record left in place: %v", err)
	}

	if err := s.notifier.Sweep(ctx); err != nil {
		log.Printf("[SCHEDULER] Delivery sweep failed: %v", err)
	}

	if s.stuck != nil {
		if n, err := s.stuck.CountStuckProcessing(ctx, s.StuckAge); err == nil && n > 0 {
			log.Printf("[SCHEDULER] %d record(s) stuck in processing longer than %s", n, s.StuckAge)
		}
	}
}
