// Package writer turns scraped job data into tailored application
// documents. It owns the one-time degree-approach classification and the
// resume and cover letter drafts, all produced through the LLM client.
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/apply-pipeline/internal/llm"
	"github.com/jonathan/apply-pipeline/internal/prompts"
	"github.com/jonathan/apply-pipeline/internal/types"
)

const promptFile = "writer.json"

// Writer generates application documents for job postings.
type Writer struct {
	client  llm.Client
	profile *types.UserProfile
}

// New returns a Writer backed by the given LLM client and candidate
// profile.
func New(client llm.Client, profile *types.UserProfile) *Writer {
	return &Writer{client: client, profile: profile}
}

// Classify decides once how the candidate's graduate degree should be
// handled for this posting. The model response is schema-validated before
// it is trusted.
func (w *Writer) Classify(ctx context.Context, data *types.JobData) (types.Classification, error) {
	prompt := prompts.Format(prompts.MustGet(promptFile, "classify_degree"), map[string]string{
		"Title":       data.Title,
		"Description": data.Description,
	})

	raw, err := w.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return types.Classification{}, fmt.Errorf("failed to classify posting: %w", err)
	}

	if err := validateClassification(raw); err != nil {
		return types.Classification{}, err
	}

	var c types.Classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return types.Classification{}, fmt.Errorf("failed to parse classification: %w", err)
	}

	if c.Title == "" {
		c.Title = data.Title
	}
	return c, nil
}

// GenerateResume drafts a tailored resume in document markup. The model's
// observations about candidate/posting gaps come back separately as
// feedback.
func (w *Writer) GenerateResume(ctx context.Context, data *types.JobData, c types.Classification) (text, feedback string, err error) {
	profileJSON, err := json.Marshal(w.profile)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	prompt := prompts.Format(prompts.MustGet(promptFile, "generate_resume"), map[string]string{
		"Approach":    c.Approach,
		"Reason":      c.Reason,
		"Profile":     string(profileJSON),
		"Title":       data.Title,
		"Description": data.Description,
		"Fields":      formatFields(data.Fields),
	})

	raw, err := w.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate resume: %w", err)
	}

	text, feedback = ExtractFeedback(raw)
	return text, feedback, nil
}

// GenerateCoverLetter drafts a cover letter in document markup.
func (w *Writer) GenerateCoverLetter(ctx context.Context, data *types.JobData, c types.Classification) (string, error) {
	profileJSON, err := json.Marshal(w.profile)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	prompt := prompts.Format(prompts.MustGet(promptFile, "generate_cover_letter"), map[string]string{
		"Approach":     c.Approach,
		"Reason":       c.Reason,
		"Profile":      string(profileJSON),
		"Title":        data.Title,
		"Company":      c.Company,
		"Description":  data.Description,
		"Instructions": w.profile.SpecialInstructions,
	})

	raw, err := w.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", fmt.Errorf("failed to generate cover letter: %w", err)
	}

	text, _ := ExtractFeedback(raw)
	return text, nil
}

// formatFields renders the observed application form fields as prompt
// context, one per line.
func formatFields(fields []types.FormField) string {
	if len(fields) == 0 {
		return "(none observed)"
	}

	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString("- ")
		sb.WriteString(f.Type)
		sb.WriteString(" ")
		sb.WriteString(f.Name)
		if f.Label != "" {
			sb.WriteString(": ")
			sb.WriteString(f.Label)
		}
		if f.Placeholder != "" {
			sb.WriteString(" (")
			sb.WriteString(f.Placeholder)
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
