package email

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/apply-pipeline/internal/store"
)

// Deliverer packages a finished job record into a message with the
// rendered documents attached.
type Deliverer struct {
	mailer *Mailer
}

// NewDeliverer wraps a Mailer for record delivery.
func NewDeliverer(m *Mailer) *Deliverer {
	return &Deliverer{mailer: m}
}

// Deliver sends the record's documents. Attachment paths that no longer
// exist are skipped rather than failing the whole delivery; the body
// always carries the generated text.
func (d *Deliverer) Deliver(_ context.Context, rec store.JobRecord) error {
	var attachments []Attachment
	for _, path := range []*string{rec.ResumeArtifact, rec.CoverArtifact} {
		if path == nil || *path == "" {
			continue
		}
		content, err := os.ReadFile(*path)
		if err != nil {
			continue
		}
		attachments = append(attachments, Attachment{
			Filename: filepath.Base(*path),
			Content:  content,
		})
	}

	if err := d.mailer.Send(Subject(rec), Body(rec), attachments); err != nil {
		return fmt.Errorf("failed to deliver record %d: %w", rec.ID, err)
	}
	return nil
}

// Subject builds the message subject line for a record.
func Subject(rec store.JobRecord) string {
	title := deref(rec.JobTitle, "unknown role")
	company := deref(rec.JobCompany, "unknown company")
	return fmt.Sprintf("job #%d - %s - %s", rec.ID, title, company)
}

// Body builds the plain-text message body for a record.
func Body(rec store.JobRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Documents are ready for %s\n\n", rec.URL)
	fmt.Fprintf(&sb, "Role: %s\n", deref(rec.JobTitle, "unknown"))
	fmt.Fprintf(&sb, "Company: %s\n", deref(rec.JobCompany, "unknown"))
	fmt.Fprintf(&sb, "Degree approach: %s\n", deref(rec.DegreeApproach, "not classified"))
	if rec.DegreeReason != nil && *rec.DegreeReason != "" {
		fmt.Fprintf(&sb, "Rationale: %s\n", *rec.DegreeReason)
	}

	if rec.AddedAt != nil {
		fmt.Fprintf(&sb, "\nQueued: %s\n", rec.AddedAt.Format(time.RFC1123))
	}
	if rec.FinishedAt != nil {
		fmt.Fprintf(&sb, "Finished: %s\n", rec.FinishedAt.Format(time.RFC1123))
	}

	if rec.Feedback != nil && *rec.Feedback != "" {
		fmt.Fprintf(&sb, "\nWriter feedback:\n%s\n", *rec.Feedback)
	}

	return sb.String()
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
