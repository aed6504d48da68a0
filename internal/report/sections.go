package report

import (
	"regexp"
	"strings"

	"github.com/dyike/manbo/internal/models"
)

var headingRe = regexp.MustCompile(`^\s*(#{1,6})\s+(.*)$`)

// Sections splits text at markdown headings. Lines before the first heading
// are dropped, and so are sections whose cleaned body is empty.
func Sections(text string) []models.ReportSection {
	var (
		out     []models.ReportSection
		title   string
		body    []string
		inBlock bool
	)

	flush := func() {
		if !inBlock {
			return
		}
		content := Clean(strings.Join(body, "\n"))
		if content != "" {
			out = append(out, models.ReportSection{Title: title, Content: content})
		}
	}

	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			title = headingTitle(m[2])
			body = body[:0]
			inBlock = true
			continue
		}
		if inBlock {
			body = append(body, line)
		}
	}
	flush()
	return out
}

// headingTitle drops closing hashes ("## Title ##") and inline emphasis.
func headingTitle(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSpace(strings.TrimRight(raw, "#"))
	return Clean(raw)
}
