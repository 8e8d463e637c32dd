package protobuf

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeComment flattens the inside of a /** ... */ block into a single
// line: per-line '*' decoration is dropped and whitespace is collapsed.
func NormalizeComment(raw string) string {
	lines := commentLines(raw)
	return collapse(strings.Join(lines, " "))
}

// ParagraphComment cleans the inside of a /** ... */ block while keeping
// paragraph breaks. An empty line, or a line holding only '*', ends a
// paragraph; paragraphs are joined with a blank line.
func ParagraphComment(raw string) string {
	return joinParagraphs(commentLines(raw))
}

// LineComment joins the text of consecutive // comments. A blank // line
// ends a paragraph.
func LineComment(lines []string) string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		text := strings.TrimSpace(line)
		text = strings.TrimPrefix(text, "//")
		text = strings.TrimLeft(text, "/")
		cleaned = append(cleaned, strings.TrimSpace(text))
	}
	return joinParagraphs(cleaned)
}

// commentLines splits a block comment body into trimmed lines with the
// leading '*' decoration removed.
func commentLines(raw string) []string {
	split := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(split))
	for _, line := range split {
		text := strings.TrimSpace(line)
		text = strings.TrimPrefix(text, "*")
		lines = append(lines, strings.TrimSpace(text))
	}
	return lines
}

func joinParagraphs(lines []string) string {
	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, collapse(strings.Join(current, " ")))
			current = current[:0]
		}
	}
	for _, line := range lines {
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return strings.Join(paragraphs, "\n\n")
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
