package writer

import (
	"regexp"
	"strings"
)

var feedbackPattern = regexp.MustCompile(`(?s)<f>(.*?)</f>`)

// ExtractFeedback splits a model response into document text and the
// feedback block, if any. Multiple feedback blocks are joined with blank
// lines; all blocks are removed from the document text.
func ExtractFeedback(raw string) (text, feedback string) {
	matches := feedbackPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(raw), ""
	}

	var notes []string
	for _, m := range matches {
		if note := strings.TrimSpace(m[1]); note != "" {
			notes = append(notes, note)
		}
	}

	text = strings.TrimSpace(feedbackPattern.ReplaceAllString(raw, ""))
	return text, strings.Join(notes, "\n\n")
}
