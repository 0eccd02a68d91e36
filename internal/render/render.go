package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// Error represents a failure while rendering or writing an artifact.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Renderer writes LaTeX artifacts for generated documents.
type Renderer struct {
	OutputDir string
	FileName  string
}

// New returns a Renderer rooted at outputDir. fileName is the per-document
// base name, typically the candidate's surname.
func New(outputDir, fileName string) *Renderer {
	return &Renderer{OutputDir: outputDir, FileName: fileName}
}

// Render converts document markup to a LaTeX file under the job's output
// directory and returns the written path.
func (r *Renderer) Render(meta types.DocumentMeta, markup string) (string, error) {
	dir := filepath.Join(r.OutputDir, strconv.FormatInt(meta.JobID, 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Path: dir, Message: "failed to create output directory", Cause: err}
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.tex", r.FileName, meta.Kind))
	doc := Document(meta, markup)

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", &Error{Path: path, Message: "failed to write artifact", Cause: err}
	}
	return path, nil
}

var (
	headingPattern = regexp.MustCompile(`<h>(.*?)</h>`)
	boldPattern    = regexp.MustCompile(`<b>(.*?)</b>`)
)

// Document builds a complete LaTeX document from markup.
func Document(meta types.DocumentMeta, markup string) string {
	var sb strings.Builder

	sb.WriteString("\\documentclass[11pt]{article}\n")
	sb.WriteString("\\usepackage[margin=1in]{geometry}\n")
	sb.WriteString("\\usepackage{parskip}\n")
	sb.WriteString("\\pagestyle{empty}\n")
	sb.WriteString(fmt.Sprintf("%% %s for %s\n", meta.Kind, EscapeLaTeX(meta.JobTitle)))
	sb.WriteString("\\begin{document}\n\n")
	if meta.Author != "" {
		sb.WriteString(fmt.Sprintf("\\begin{center}{\\LARGE \\textbf{%s}}\\end{center}\n\n", EscapeLaTeX(meta.Author)))
	}
	sb.WriteString(Body(markup))
	sb.WriteString("\n\\end{document}\n")

	return sb.String()
}

// Body converts markup to the LaTeX document body. Supported markup:
// <h>...</h> headings, <b>...</b> bold, <br/> line breaks and lines
// beginning with a bullet point.
func Body(markup string) string {
	markup = strings.ReplaceAll(markup, "<br/>", "\n")

	var sb strings.Builder
	inList := false

	for _, line := range strings.Split(markup, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if inList {
				sb.WriteString("\\end{itemize}\n")
				inList = false
			}
			sb.WriteString("\n")
			continue
		}

		if bullet, ok := strings.CutPrefix(line, "• "); ok {
			if !inList {
				sb.WriteString("\\begin{itemize}\n")
				inList = true
			}
			sb.WriteString("  \\item " + inline(bullet) + "\n")
			continue
		}

		if inList {
			sb.WriteString("\\end{itemize}\n")
			inList = false
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			sb.WriteString("\\section*{" + inline(m[1]) + "}\n")
			continue
		}

		sb.WriteString(inline(line) + "\n")
	}

	if inList {
		sb.WriteString("\\end{itemize}\n")
	}
	return sb.String()
}

// inline escapes a text fragment and applies bold markup. The tag
// characters survive escaping untouched, so escaping runs first and the
// tags are rewritten afterwards.
func inline(text string) string {
	escaped := EscapeLaTeX(text)
	escaped = headingPattern.ReplaceAllString(escaped, "$1")
	return boldPattern.ReplaceAllString(escaped, `\textbf{$1}`)
}
