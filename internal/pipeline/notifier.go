package pipeline

import (
	"context"
	"fmt"
	"log"
)

// Notifier delivers archived records that have not been emailed yet.
type Notifier struct {
	store   Store
	emailer Emailer // nil disables delivery
}

// NewNotifier wires the delivery notifier. emailer may be nil.
func NewNotifier(st Store, emailer Emailer) *Notifier {
	return &Notifier{store: st, emailer: emailer}
}

// Sweep attempts delivery for every undelivered processed record. A failed
// delivery is logged and retried on the next sweep; the flag flips only
// after a successful send, so a delivered record is never sent twice.
func (n *Notifier) Sweep(ctx context.Context) error {
	if n.emailer == nil {
		return nil
	}

	recs, err := n.store.ListUndelivered(ctx)
	if err != nil {
		return fmt.Errorf("failed to list undelivered records: %w", err)
	}

	for _, rec := range recs {
		if err := n.emailer.Deliver(ctx, rec); err != nil {
			log.Printf("[DELIVER] Record %d delivery failed, will retry: %v", rec.ID, err)
			continue
		}
		if err := n.store.MarkDelivered(ctx, rec.ID); err != nil {
			return fmt.Errorf("failed to mark record %d delivered: %w", rec.ID, err)
		}
		log.Printf("[DELIVER] Record %d delivered", rec.ID)
	}
	return nil
}
