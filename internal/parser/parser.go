// Package parser composes the frontmatter codec and the markdown extractor
// into the single parsed view of a note that indexing and the note service
// consume.
package parser

import (
	"strings"

	"github.com/mimir-notes/mimir/internal/frontmatter"
	"github.com/mimir-notes/mimir/internal/markdown"
)

// Result holds the output of parsing a Markdown note.
type Result struct {
	Frontmatter *frontmatter.Mapping
	Body        string
	RawBlock    string
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, deduplicated wikilink targets, and tags
// from raw Markdown bytes. It never fails: malformed frontmatter degrades
// to an empty mapping with the whole input as body.
func Parse(data []byte) *Result {
	content := string(data)
	fm, body, raw := frontmatter.Parse(content)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		RawBlock:    raw,
		Links:       linkTargets(body),
		Tags:        frontmatter.AllTags(content),
		Title:       deriveTitle(fm, body),
	}
}

// linkTargets returns deduplicated internal link targets in body order,
// heading suffixes stripped.
func linkTargets(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, link := range markdown.InternalLinks(body) {
		target := link.Target
		if i := strings.Index(target, "#"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm *frontmatter.Mapping, body string) string {
	if v, ok := fm.Get("title"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	for h := range markdown.Headings(body) {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}
