package pipeline

import (
	"fmt"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// ClassifyScrape decides whether a scrape outcome is usable. It is a pure
// function of the collaborator result, so identical scrapes always route
// the same way. The returned reason is empty on success.
func ClassifyScrape(data *types.JobData, scrapeErr error, minContentChars int) (reason string, failed bool) {
	if scrapeErr != nil {
		return scrapeErr.Error(), true
	}
	if data == nil || data.Title == "" {
		return "unknown job title", true
	}
	if n := data.ContentLength(); n < minContentChars {
		return fmt.Sprintf("insufficient content (%d chars)", n), true
	}
	return "", false
}
