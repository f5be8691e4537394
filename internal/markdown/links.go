package markdown

import (
	"regexp"
	"strings"
)

// LinkKind classifies an extracted link.
type LinkKind string

const (
	LinkInternal LinkKind = "internal" // [[wikilink]]
	LinkExternal LinkKind = "external" // [text](http…)
	LinkTag      LinkKind = "tag"      // #tag
)

// Link is a single reference extracted from note text. For internal links
// Target keeps any heading suffix in combined "note#heading" form; callers
// needing the bare note name split on '#'.
type Link struct {
	Target  string   `json:"target"`
	Display string   `json:"display"`
	Embed   bool     `json:"embed"`
	Kind    LinkKind `json:"kind"`
}

var (
	// Bounded character classes keep adjacent links on one line separate
	// and stop the match at the first literal "]]".
	wikilinkRe = regexp.MustCompile(`(!?)\[\[([^\[\]|#]+)(#[^\[\]|]+)?(?:\|([^\[\]]+))?\]\]`)
	externalRe = regexp.MustCompile(`\[([^\]]*)\]\((https?://[^)\s]+)\)`)
	tagRe      = regexp.MustCompile(`(?:^|[^0-9A-Za-z_])#([A-Za-z][0-9A-Za-z_/-]*)`)
)

// InternalLinks extracts wikilinks ([[target]], [[target|display]],
// [[target#heading]], and embed forms ![[…]]) in document order. Display
// text defaults to the full target when no alias is given.
func InternalLinks(text string) []Link {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	out := make([]Link, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(m[2]) + strings.TrimSpace(m[3])
		if target == "" {
			continue
		}
		display := strings.TrimSpace(m[4])
		if display == "" {
			display = target
		}
		out = append(out, Link{
			Target:  target,
			Display: display,
			Embed:   m[1] == "!",
			Kind:    LinkInternal,
		})
	}
	return out
}

// ExternalLinks extracts [display](url) links whose URL starts with
// http:// or https://. Other schemes fall through unclassified.
func ExternalLinks(text string) []Link {
	matches := externalRe.FindAllStringSubmatch(text, -1)
	out := make([]Link, 0, len(matches))
	for _, m := range matches {
		out = append(out, Link{
			Target:  m[2],
			Display: m[1],
			Kind:    LinkExternal,
		})
	}
	return out
}

// TagLinks extracts inline #tags. A tag starts with a letter, continues
// with letters, digits, '_', '-', or '/', and must not be immediately
// preceded by a word character (foo#bar is not a tag).
func TagLinks(text string) []Link {
	matches := tagRe.FindAllStringSubmatch(text, -1)
	out := make([]Link, 0, len(matches))
	for _, m := range matches {
		out = append(out, Link{
			Target:  m[1],
			Display: m[1],
			Kind:    LinkTag,
		})
	}
	return out
}
