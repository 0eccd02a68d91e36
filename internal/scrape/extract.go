package scrape

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/apply-pipeline/internal/types"
)

// titleSelectors are tried in order; the first non-empty match wins.
var titleSelectors = []string{
	"h1",
	"h2",
	".jobTitle",
	".job-title",
	"div.job-header > span",
	"[data-automation-id='jobPostingHeader']",
}

// descriptionSelectors are tried in order before falling back to body text.
var descriptionSelectors = []string{
	"div.job-description",
	"section[data-automation-id='jobDescription']",
	"#jobDescriptionText",
	".posting-content",
	"article",
	"main",
}

// Extract parses rendered job posting HTML into structured JobData. A
// missing title leaves Title empty; the caller decides whether that is
// fatal. A restricted-access page returns the partial data alongside an
// error so the block reason lands in the record.
func Extract(url, html string) (*types.JobData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: url, Message: "failed to parse HTML", Cause: err}
	}

	data := &types.JobData{
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		Fields:      extractFormFields(doc),
	}

	if isRestricted(doc) {
		return data, &Error{URL: url, Message: "access to this page is restricted"}
	}
	return data, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if title := strings.TrimSpace(doc.Find(sel).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

// extractDescription returns the posting body as markdown. Markdown keeps
// list and heading structure that plain text extraction flattens, which
// the generation step relies on to tell requirements from boilerplate.
func extractDescription(doc *goquery.Document) string {
	doc.Find("nav, footer, header, script, style, noscript, .cookie-banner, .sidebar").Remove()

	var content *goquery.Selection
	for _, sel := range descriptionSelectors {
		if selection := doc.Find(sel); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return cleanWhitespace(content.Text())
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(fragment)
	if err != nil {
		return cleanWhitespace(content.Text())
	}
	return strings.TrimSpace(markdown)
}

// extractFormFields collects the application form inputs present on the
// page. Unnamed controls carry no information for the writer and are
// skipped.
func extractFormFields(doc *goquery.Document) []types.FormField {
	var fields []types.FormField

	doc.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("id")
		}
		if name == "" {
			return
		}

		fieldType := goquery.NodeName(s)
		if t, ok := s.Attr("type"); ok && fieldType == "input" {
			fieldType = t
		}
		if fieldType == "hidden" {
			return
		}

		placeholder, _ := s.Attr("placeholder")

		fields = append(fields, types.FormField{
			Type:        fieldType,
			Name:        name,
			Placeholder: placeholder,
			Label:       labelFor(doc, s),
		})
	})

	return fields
}

// labelFor finds the visible label text for a form control, either via a
// for= association or an enclosing <label>.
func labelFor(doc *goquery.Document, s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		if label := doc.Find(`label[for="` + id + `"]`); label.Length() > 0 {
			return strings.TrimSpace(label.First().Text())
		}
	}
	if parent := s.Closest("label"); parent.Length() > 0 {
		return strings.TrimSpace(parent.First().Text())
	}
	return ""
}

func isRestricted(doc *goquery.Document) bool {
	body := strings.ToLower(doc.Find("body").Text())
	return strings.Contains(body, "access to this page is restricted") ||
		strings.Contains(body, "verify you are a human")
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
