package frontmatter

import (
	"strings"

	"github.com/mimir-notes/mimir/internal/markdown"
)

// AddTags returns content with tags appended to the frontmatter "tags"
// sequence. A leading '#' is stripped from each tag before storage and
// duplicates (exact string match) are not added, so the operation is
// idempotent.
func AddTags(content string, tags []string) string {
	return appendListValues("tags", content, normalizeTags(tags), false)
}

// RemoveTags returns content with the given tags removed from the
// frontmatter "tags" sequence. Comparison is case-insensitive.
func RemoveTags(content string, tags []string) string {
	fm, body, _ := Parse(content)
	remove := make(map[string]struct{}, len(tags))
	for _, t := range normalizeTags(tags) {
		remove[strings.ToLower(t)] = struct{}{}
	}

	// No tags key means nothing to remove; don't inject an empty block.
	if _, ok := fm.Get("tags"); !ok {
		return content
	}

	existing := listValue(fm, "tags")
	kept := make([]any, 0, len(existing))
	for _, item := range existing {
		s, ok := item.(string)
		if ok {
			if _, drop := remove[strings.ToLower(s)]; drop {
				continue
			}
		}
		kept = append(kept, item)
	}
	fm.Set("tags", kept)
	return Stringify(fm) + body
}

// AddAliases returns content with aliases appended to the frontmatter
// "aliases" sequence, skipping exact duplicates.
func AddAliases(content string, aliases []string) string {
	return appendListValues("aliases", content, aliases, false)
}

// AllTags returns the union of frontmatter-declared tags and inline #tag
// occurrences in the body, frontmatter first, deduplicated by exact match.
func AllTags(content string) []string {
	fm, body, _ := Parse(content)

	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			return
		}
		if _, dup := seen[tag]; dup {
			return
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	for _, item := range listValue(fm, "tags") {
		if s, ok := item.(string); ok {
			add(s)
		}
	}
	for _, link := range markdown.TagLinks(body) {
		add(link.Target)
	}
	return out
}

// appendListValues parses content, appends values to the named sequence
// (skipping exact duplicates), and re-serializes.
func appendListValues(key, content string, values []string, allowDup bool) string {
	fm, body, _ := Parse(content)

	existing := listValue(fm, key)
	seen := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		if s, ok := item.(string); ok {
			seen[s] = struct{}{}
		}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup && !allowDup {
			continue
		}
		seen[v] = struct{}{}
		existing = append(existing, v)
	}
	fm.Set(key, existing)
	return Stringify(fm) + body
}

// listValue returns the value under key as a sequence, lifting a lone
// scalar into a single-element sequence.
func listValue(fm *Mapping, key string) []any {
	v, ok := fm.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []any:
		return val
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out
	default:
		return []any{val}
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
