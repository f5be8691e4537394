package graph

import (
	"strings"

	"github.com/mimir-notes/mimir/internal/markdown"
)

// BrokenLink is one unresolvable internal link.
type BrokenLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// BrokenLinkReport lists unresolvable links plus scan accounting, so a
// partial result is still meaningful.
type BrokenLinkReport struct {
	Broken       []BrokenLink `json:"broken"`
	FilesChecked int          `json:"files_checked"`
	Truncated    bool         `json:"truncated,omitempty"`
}

// Node is a graph-export node.
type Node struct {
	ID string `json:"id"`
}

// Edge is a directed graph-export edge between two note paths.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Export is the graph-visualization payload.
type Export struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Backlinks returns the paths of all notes whose internal links reference
// target. The bare note name is derived from target's final path segment
// minus extension, and a reference matches in any recognized form (with or
// without extension, with or without leading path). Self-references are
// excluded case-insensitively.
func Backlinks(target string, snap *Snapshot) []string {
	want := baseName(target)
	if want == "" {
		return nil
	}

	var out []string
	for _, note := range snap.Notes {
		if strings.EqualFold(note.Path, target) {
			continue
		}
		for _, link := range markdown.InternalLinks(note.Content) {
			if baseName(normalizeTarget(link.Target)) == want {
				out = append(out, note.Path)
				break
			}
		}
	}
	return out
}

// BrokenLinks reports every internal link whose target resolves to no note
// in the snapshot. Heading suffixes are stripped before the membership
// test. The snapshot's scan cap bounds the work; the report always carries
// the number of files actually checked.
func BrokenLinks(snap *Snapshot) *BrokenLinkReport {
	existing := make(map[string]struct{}, len(snap.Notes)*3)
	for _, note := range snap.Notes {
		for _, form := range nameForms(note.Path) {
			existing[form] = struct{}{}
		}
	}

	report := &BrokenLinkReport{
		FilesChecked: len(snap.Notes),
		Truncated:    snap.Truncated,
	}
	for _, note := range snap.Notes {
		for _, link := range markdown.InternalLinks(note.Content) {
			norm := normalizeTarget(link.Target)
			if norm == "" {
				continue
			}
			if _, ok := existing[norm]; ok {
				continue
			}
			stripped := link.Target
			if i := strings.Index(stripped, "#"); i >= 0 {
				stripped = stripped[:i]
			}
			report.Broken = append(report.Broken, BrokenLink{
				Source: note.Path,
				Target: strings.TrimSpace(stripped),
			})
		}
	}
	return report
}

// Orphans returns notes that no other note links to. With includeUnlinked
// false (the default behavior), orphans that also have zero outgoing links
// are excluded — only notes that point outward yet are never targeted are
// reported. The asymmetry is intentional product behavior and is kept
// as-is.
func Orphans(snap *Snapshot, includeUnlinked bool) []string {
	linkedTo := make(map[string]struct{})
	for _, note := range snap.Notes {
		for _, link := range markdown.InternalLinks(note.Content) {
			norm := normalizeTarget(link.Target)
			if norm == "" {
				continue
			}
			linkedTo[norm] = struct{}{}
			linkedTo[strings.TrimSuffix(norm, ".md")] = struct{}{}
			linkedTo[baseName(norm)] = struct{}{}
		}
	}

	var out []string
	for _, note := range snap.Notes {
		referenced := false
		for _, form := range nameForms(note.Path) {
			if _, ok := linkedTo[form]; ok {
				referenced = true
				break
			}
		}
		if referenced {
			continue
		}
		if !includeUnlinked && len(markdown.InternalLinks(note.Content)) == 0 {
			continue
		}
		out = append(out, note.Path)
	}
	return out
}

// ExportGraph builds a graph payload from the first maxNotes notes in
// snapshot order. Edges are added only when both the source and the
// resolved target fall inside the capped node set; links crossing the
// boundary are dropped silently, not reported as broken.
func ExportGraph(snap *Snapshot, maxNotes int) *Export {
	notes := snap.Notes
	if maxNotes > 0 && len(notes) > maxNotes {
		notes = notes[:maxNotes]
	}

	resolve := make(map[string]string, len(notes)*3)
	export := &Export{Nodes: make([]Node, 0, len(notes)), Edges: []Edge{}}
	for _, note := range notes {
		export.Nodes = append(export.Nodes, Node{ID: note.Path})
		for _, form := range nameForms(note.Path) {
			resolve[form] = note.Path
		}
	}

	seen := make(map[Edge]struct{})
	for _, note := range notes {
		for _, link := range markdown.InternalLinks(note.Content) {
			target, ok := resolve[normalizeTarget(link.Target)]
			if !ok {
				continue
			}
			edge := Edge{Source: note.Path, Target: target}
			if _, dup := seen[edge]; dup {
				continue
			}
			seen[edge] = struct{}{}
			export.Edges = append(export.Edges, edge)
		}
	}
	return export
}
