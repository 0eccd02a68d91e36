package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pipeline/internal/types"
)

func TestEscapeLaTeX(t *testing.T) {
	assert.Equal(t, "", EscapeLaTeX(""))
	assert.Equal(t, `plain text`, EscapeLaTeX("plain text"))
	assert.Equal(t, `50\% \& rising`, EscapeLaTeX("50% & rising"))
	assert.Equal(t, `\$100\_000`, EscapeLaTeX("$100_000"))
	assert.Equal(t, `\textbackslash{}cmd\{x\}`, EscapeLaTeX(`\cmd{x}`))
	assert.Equal(t, `a\textasciicircum{}b\textasciitilde{}c`, EscapeLaTeX("a^b~c"))
}

func TestBody(t *testing.T) {
	markup := "<h>Experience</h>\n<b>Acme Corp</b> 2020-2024\n• Shipped the 50% faster pipeline\n• Mentored juniors\n\nClosing line."
	body := Body(markup)

	assert.Contains(t, body, `\section*{Experience}`)
	assert.Contains(t, body, `\textbf{Acme Corp} 2020-2024`)
	assert.Contains(t, body, "\\begin{itemize}\n  \\item Shipped the 50\\% faster pipeline\n  \\item Mentored juniors\n\\end{itemize}")
	assert.Contains(t, body, "Closing line.")
}

func TestBodyBreakTags(t *testing.T) {
	body := Body("line one<br/>line two")
	assert.Contains(t, body, "line one\n")
	assert.Contains(t, body, "line two\n")
}

func TestBodyClosesTrailingList(t *testing.T) {
	body := Body("• only bullet")
	assert.Contains(t, body, "\\begin{itemize}")
	assert.Contains(t, body, "\\end{itemize}")
}

func TestRenderWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, "doe")

	meta := types.DocumentMeta{
		JobID:    42,
		Kind:     types.DocumentResume,
		Author:   "Alex Doe",
		JobTitle: "Platform Engineer",
	}

	path, err := r.Render(meta, "<h>Summary</h>\nBuilds platforms.")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "42", "doe_resume.tex"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `\documentclass`)
	assert.Contains(t, string(content), `\section*{Summary}`)
	assert.Contains(t, string(content), `Alex Doe`)
	assert.Contains(t, string(content), `\end{document}`)
}

func TestRenderCoverLetterPath(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, "doe")

	path, err := r.Render(types.DocumentMeta{JobID: 7, Kind: types.DocumentCoverLetter}, "Dear team,")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "7", "doe_cover_letter.tex"), path)
}
