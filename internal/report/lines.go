package report

import (
	"regexp"
	"strings"
)

// LineKind classifies a line for terminal rendering.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeading2
	LineHeading3
	LineBullet
	LineNumbered
	LineParagraph
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeading2:
		return "h2"
	case LineHeading3:
		return "h3"
	case LineBullet:
		return "bullet"
	case LineNumbered:
		return "numbered"
	default:
		return "paragraph"
	}
}

// Span is a run of inline text, optionally emphasised.
type Span struct {
	Text string
	Bold bool
}

// Line is one classified display line.
type Line struct {
	Kind LineKind
	// Marker holds the item number for numbered lines.
	Marker string
	Spans  []Span
}

// Text joins the spans without emphasis.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

var (
	bulletRe   = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
	ruleLineRe = regexp.MustCompile(`^\s*(?:-{3,}|_{3,}|\*{3,})\s*$`)
)

// Classify maps a raw line onto a display kind. Level 1 and 2 headings render
// as Heading2; deeper levels as Heading3. Rule-only lines render as blank.
func Classify(line string) Line {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || ruleLineRe.MatchString(trimmed) {
		return Line{Kind: LineBlank}
	}

	if m := headingRe.FindStringSubmatch(trimmed); m != nil {
		kind := LineHeading3
		if len(m[1]) <= 2 {
			kind = LineHeading2
		}
		return Line{Kind: kind, Spans: []Span{{Text: headingTitle(m[2])}}}
	}

	if m := numberedRe.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: LineNumbered, Marker: m[1], Spans: InlineSpans(m[2])}
	}

	if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
		return Line{Kind: LineBullet, Spans: InlineSpans(m[1])}
	}

	return Line{Kind: LineParagraph, Spans: InlineSpans(trimmed)}
}

// Lines classifies every line of text.
func Lines(text string) []Line {
	raw := strings.Split(normalizeNewlines(text), "\n")
	out := make([]Line, 0, len(raw))
	for _, l := range raw {
		out = append(out, Classify(l))
	}
	return out
}

// InlineSpans splits text on **bold** markers.
func InlineSpans(text string) []Span {
	var spans []Span
	last := 0
	for _, loc := range boldStarRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			spans = append(spans, Span{Text: text[last:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[2]:loc[3]], Bold: true})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}
