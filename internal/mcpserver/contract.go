package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Mimir Note Format Contract

Every Markdown note stored in Mimir MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # REQUIRED – used in search, lists, graph
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
aliases:                            # OPTIONAL – alternative names for lookup
  - other-name
created: 2025-01-15                 # OPTIONAL – ISO-8601 date or datetime
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
Use [[target#Heading]] to point at a section inside another note.
` + "```" + `

## Rules

1. **YAML frontmatter is optional but recommended.** When present, the ` + "`---`" + `
   fences must be the first thing in the file (no leading blank lines).
   A note without frontmatter is still valid; its title falls back to the
   first ` + "`# Heading`" + `.
2. **Frontmatter values stay simple.** Scalars (strings, numbers, booleans,
   null) and flat lists only. Nested mappings are not supported and will be
   kept as opaque strings.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`project-x`" + `, ` + "`meeting-notes`" + `),
   written without the leading ` + "`#`" + ` in frontmatter. Inline ` + "`#tags`" + ` in the
   body are also recognized.
4. **Wikilinks** use double brackets: ` + "`[[other-note]]`" + `. The target is the
   filename stem (no ` + "`.md`" + ` extension, path separators OK: ` + "`[[folder/note]]`" + `).
   Link resolution is case-insensitive and matches bare names as well as
   full paths.
5. **File paths** end with ` + "`.md`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
7. **No HTML** unless absolutely necessary; prefer Markdown equivalents.

## Concurrency

` + "`read_note`" + ` returns a content checksum. Pass it back as ` + "`if_match`" + ` to
` + "`update_note`" + ` so a concurrent edit is detected instead of silently
overwritten.

## Example

` + "```" + `markdown
---
title: Weekly review 2025-01-20
tags:
  - review
  - project-x
created: 2025-01-20
---

# Weekly review 2025-01-20

Follow-up from [[standup-2025-01-13]].

## Decisions

- Ship the importer behind a flag, see [[importer-design#Rollout]].

## Open questions

- Who owns the #migration backlog?
` + "```" + `
`

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mimir://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
