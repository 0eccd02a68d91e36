package scrape

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePosting = `
<html><body>
<nav>Home | Jobs</nav>
<h1>Senior Backend Engineer</h1>
<div class="job-description">
  <p>We build distributed systems.</p>
  <ul><li>Go experience</li><li>PostgreSQL</li></ul>
</div>
<form>
  <label for="applicant-email">Email address</label>
  <input type="email" id="applicant-email" name="email" placeholder="you@example.com"/>
  <input type="hidden" name="csrf" value="token"/>
  <input type="text" value="no name or id"/>
  <label>Years of experience <select name="years"><option>1</option></select></label>
  <textarea name="motivation"></textarea>
</form>
<footer>Copyright</footer>
</body></html>`

func TestExtract(t *testing.T) {
	data, err := Extract("https://example.com/job/1", samplePosting)
	require.NoError(t, err)

	assert.Equal(t, "Senior Backend Engineer", data.Title)
	assert.Contains(t, data.Description, "distributed systems")
	assert.Contains(t, data.Description, "Go experience")
	assert.NotContains(t, data.Description, "Copyright")

	require.Len(t, data.Fields, 3)
	assert.Equal(t, "email", data.Fields[0].Type)
	assert.Equal(t, "email", data.Fields[0].Name)
	assert.Equal(t, "you@example.com", data.Fields[0].Placeholder)
	assert.Equal(t, "Email address", data.Fields[0].Label)

	assert.Equal(t, "select", data.Fields[1].Type)
	assert.Contains(t, data.Fields[1].Label, "Years of experience")

	assert.Equal(t, "textarea", data.Fields[2].Type)
	assert.Equal(t, "motivation", data.Fields[2].Name)
}

func TestExtractMissingTitle(t *testing.T) {
	data, err := Extract("https://example.com/job/2",
		`<html><body><div class="job-description">Short text</div></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, data.Title)
}

func TestExtractRestrictedPage(t *testing.T) {
	data, err := Extract("https://example.com/job/3",
		`<html><body><h1>Just a moment</h1><p>Access to this page is restricted. Please verify.</p></body></html>`)
	require.Error(t, err)
	require.NotNil(t, data)

	var scrapeErr *Error
	require.True(t, errors.As(err, &scrapeErr))
	assert.Contains(t, scrapeErr.Message, "restricted")
}

func TestExtractDescriptionFallsBackToBody(t *testing.T) {
	data, err := Extract("https://example.com/job/4",
		`<html><body><h1>Data Analyst</h1><p>Analyze the data.</p></body></html>`)
	require.NoError(t, err)
	assert.Contains(t, data.Description, "Analyze the data")
}
