// Package markdown extracts structural facts — headings, links, tags, and
// content summaries — from raw note text. All functions are pure transforms
// over strings; the package performs no I/O and depends on nothing else.
//
// The scanner is regex-based by design. Known, intentional limitations:
// setext headings are not recognized, non-http(s) URLs are not classified
// as external links, and inline #tags are matched even inside fenced code
// blocks (callers wanting that exclusion must pre-strip fences).
package markdown

import (
	"iter"
	"regexp"
	"strings"
)

// Heading is an ATX heading in document order.
type Heading struct {
	Level int    `json:"level"` // 1..6
	Text  string `json:"text"`
	Line  int    `json:"line"` // 1-based
	Raw   string `json:"raw"`
}

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Headings returns a lazy, restartable sequence of ATX headings in document
// order. Levels are reported as written; no nesting is enforced.
func Headings(text string) iter.Seq[Heading] {
	return func(yield func(Heading) bool) {
		for i, line := range strings.Split(text, "\n") {
			line = strings.TrimRight(line, "\r")
			m := headingRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			h := Heading{
				Level: len(m[1]),
				Text:  strings.TrimSpace(m[2]),
				Line:  i + 1,
				Raw:   line,
			}
			if !yield(h) {
				return
			}
		}
	}
}

// SectionUnder returns the text between the heading whose text equals
// headingText (case-insensitive) and the next heading of equal or shallower
// level (or end of document). ok is false when no heading matches; the
// caller decides the fallback.
func SectionUnder(text, headingText string) (section string, ok bool) {
	lines := strings.Split(text, "\n")

	start := -1
	level := 0
	for i, line := range lines {
		m := headingRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(m[2]), headingText) {
			start = i + 1
			level = len(m[1])
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := len(lines)
	for i := start; i < len(lines); i++ {
		m := headingRe.FindStringSubmatch(strings.TrimRight(lines[i], "\r"))
		if m != nil && len(m[1]) <= level {
			end = i
			break
		}
	}

	return strings.Join(lines[start:end], "\n"), true
}
