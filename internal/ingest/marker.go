package ingest

import (
	"strings"
	"time"
)

// Source list lines carry a marker recording what a prior run did with the
// URL: "[QUEUE - <ts>] <url>" means admitted, "[DONE - <ts>] <url>" means
// fully processed. Unmarked lines are fresh candidates.
const (
	markerQueue = "QUEUE"
	markerDone  = "DONE"

	markerTimeFormat = "2006-01-02 15:04:05"
)

// line is one parsed source list entry.
type line struct {
	Marker string // "", markerQueue or markerDone
	URL    string
	Raw    string
}

// parseLine splits a source list line into marker and URL.
func parseLine(raw string) line {
	trimmed := strings.TrimSpace(raw)
	l := line{URL: trimmed, Raw: raw}

	if !strings.HasPrefix(trimmed, "[") {
		return l
	}
	end := strings.Index(trimmed, "]")
	if end < 0 {
		return l
	}

	marker := trimmed[1:end]
	rest := strings.TrimSpace(trimmed[end+1:])

	switch {
	case strings.HasPrefix(marker, markerQueue):
		l.Marker = markerQueue
	case strings.HasPrefix(marker, markerDone):
		l.Marker = markerDone
	default:
		return l
	}

	l.URL = rest
	return l
}

// annotate renders a marked source list line.
func annotate(marker, url string, now time.Time) string {
	return "[" + marker + " - " + now.Format(markerTimeFormat) + "] " + url
}
