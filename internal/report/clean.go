// Package report turns the markdown-lite text produced by the analysis
// backend into plain text and ordered sections.
package report

import (
	"regexp"
	"strings"
)

// lineSpace matches everything strings.TrimSpace removes, so trimming the
// cleaned text cannot expose a token that the prefix passes skipped.
const lineSpace = `[\s\p{Z}\x{85}\v]`

var (
	headingPrefixRe = regexp.MustCompile(`^` + lineSpace + `*(?:#+` + lineSpace + `*)+`)
	rulePrefixRe    = regexp.MustCompile(`^` + lineSpace + `*(?:(?:-{3,}|_{3,}|\*{3,})` + lineSpace + `*)+`)
	boldStarRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderRe     = regexp.MustCompile(`__(.+?)__`)
	italicStarRe    = regexp.MustCompile(`\*([^\s*](?:[^*\n]*[^\s*])?)\*`)
	italicUnderRe   = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_([^\s_](?:[^_\n]*[^\s_])?)_($|[^\p{L}\p{N}_])`)
	blankRunRe      = regexp.MustCompile(`\n{3,}`)
)

// Clean strips markdown heading, emphasis and rule tokens while keeping the
// remaining text as is. Runs of blank lines collapse to one and the result is
// trimmed. Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	text = normalizeNewlines(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}
	out := strings.Join(lines, "\n")
	out = blankRunRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// cleanLine applies the token passes until the line stops changing. Every
// pass only removes characters, so the loop terminates.
func cleanLine(line string) string {
	for {
		next := stripOnce(line)
		if next == line {
			break
		}
		line = next
	}
	if strings.TrimSpace(line) == "" {
		return ""
	}
	return line
}

func stripOnce(line string) string {
	line = headingPrefixRe.ReplaceAllString(line, "")
	line = boldStarRe.ReplaceAllString(line, "$1")
	line = boldUnderRe.ReplaceAllString(line, "$1")
	line = italicStarRe.ReplaceAllString(line, "$1")
	line = italicUnderRe.ReplaceAllString(line, "${1}${2}${3}")
	line = rulePrefixRe.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "**", "")
	return line
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
