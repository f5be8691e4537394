package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]*`")
	embedRe      = regexp.MustCompile(`!\[\[[^\[\]]*\]\]`)
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLinkRe     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	headMarkRe   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Summarize produces a plain-text summary of at most maxLength characters
// (plus a "..." suffix when truncated). Frontmatter, code, heading markers,
// and image syntax are stripped; wikilinks and markdown links are replaced
// by their display text; whitespace is collapsed. Truncation prefers the
// last word boundary when it falls within the final 30% of the budget.
func Summarize(text string, maxLength int) string {
	clean := cleanText(text)
	if maxLength <= 0 || len(clean) <= maxLength {
		return clean
	}

	// Back the cut up to a rune boundary so a multibyte rune is never split.
	end := maxLength
	for end > 0 && !utf8.RuneStart(clean[end]) {
		end--
	}
	cut := clean[:end]
	if idx := strings.LastIndex(cut, " "); idx >= maxLength*7/10 {
		cut = cut[:idx]
	}
	return cut + "..."
}

// CountWords counts whitespace-delimited tokens after the same stripping
// pipeline used by Summarize.
func CountWords(text string) int {
	return len(strings.Fields(cleanText(text)))
}

// cleanText strips structural syntax down to prose.
func cleanText(text string) string {
	text = stripFrontmatterBlock(text)
	text = fencedCodeRe.ReplaceAllString(text, " ")
	text = inlineCodeRe.ReplaceAllString(text, " ")
	text = embedRe.ReplaceAllString(text, " ")
	text = imageRe.ReplaceAllString(text, " ")
	text = wikilinkRe.ReplaceAllStringFunc(text, func(s string) string {
		links := InternalLinks(s)
		if len(links) == 0 {
			return " "
		}
		return links[0].Display
	})
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = headMarkRe.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// stripFrontmatterBlock drops a leading "---" delimited block without
// interpreting it.
func stripFrontmatterBlock(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return text
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r") == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return text
}
