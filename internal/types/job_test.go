package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentLength(t *testing.T) {
	var nilData *JobData
	assert.Zero(t, nilData.ContentLength())

	d := &JobData{
		Title:       "  Engineer  ",
		Description: "Build things.",
		Fields: []FormField{
			{Label: "Email address"},
			{Label: ""},
		},
	}
	// 8 + 13 + 13
	assert.Equal(t, 34, d.ContentLength())
}

func TestLoadUserProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"full_name": "Alex Doe",
		"email": "alex@example.com",
		"skills": ["Go", "SQL"],
		"special_instructions": "Mention relocation."
	}`), 0o644))

	p, err := LoadUserProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Alex Doe", p.FullName)
	assert.Equal(t, []string{"Go", "SQL"}, p.Skills)
	assert.Equal(t, "Mention relocation.", p.SpecialInstructions)
}

func TestLoadUserProfileErrors(t *testing.T) {
	_, err := LoadUserProfile("/nonexistent/user.json")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = LoadUserProfile(path)
	assert.Error(t, err)
}
