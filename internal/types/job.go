// Package types defines the shared data structures passed between the
// pipeline and its collaborators.
package types

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DegreeApproach constants. The classification decides once per job whether
// the candidate's credential should be pushed or played down.
const (
	DegreeEmphasize = "emphasize"
	DegreeMinimize  = "minimize"
)

// FormField is a single application form control discovered on a job page.
type FormField struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Placeholder string `json:"placeholder,omitempty"`
	Label       string `json:"label,omitempty"`
}

// JobData is the structured result of scraping a job posting.
type JobData struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Fields      []FormField `json:"form_fields,omitempty"`
}

// ContentLength returns the combined length of the title, description and
// field labels. Used as the content-sufficiency heuristic after a scrape.
func (d *JobData) ContentLength() int {
	if d == nil {
		return 0
	}
	n := len(strings.TrimSpace(d.Title)) + len(strings.TrimSpace(d.Description))
	for _, f := range d.Fields {
		n += len(strings.TrimSpace(f.Label))
	}
	return n
}

// Classification is the one-time degree-approach decision for a job.
type Classification struct {
	Approach string `json:"approach"`
	Reason   string `json:"reason"`
	Title    string `json:"title"`
	Company  string `json:"company"`
}

// DocumentKind identifies which artifact a render call produces.
const (
	DocumentResume      = "resume"
	DocumentCoverLetter = "cover_letter"
)

// DocumentMeta carries rendering metadata for a generated document.
type DocumentMeta struct {
	JobID    int64
	Kind     string
	Author   string
	JobTitle string
}

// UserProfile is the candidate data fed into generation prompts.
type UserProfile struct {
	FullName            string          `json:"full_name"`
	Email               string          `json:"email,omitempty"`
	Phone               string          `json:"phone,omitempty"`
	LinkedIn            string          `json:"linkedin,omitempty"`
	Website             string          `json:"website,omitempty"`
	Skills              []string        `json:"skills,omitempty"`
	Experience          json.RawMessage `json:"experience,omitempty"`
	Education           json.RawMessage `json:"education,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// LoadUserProfile reads a candidate profile from a JSON file.
func LoadUserProfile(path string) (*UserProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user profile %s: %w", path, err)
	}

	var p UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse user profile %s: %w", path, err)
	}
	return &p, nil
}
