// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the vault to LLM agents via stdio transport.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mimir-notes/mimir/internal/noteservice"
)

// Server wraps the MCP server with all vault tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Mimir",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.registerNoteTools()
	s.registerMetadataTools()
	s.registerAnalysisTools()

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Mimir note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource("mimir://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

func (s *Server) registerNoteTools() {
	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note, including frontmatter."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note at the specified path. "+
			"Content MUST follow the canonical note format (YAML frontmatter with title, "+
			"optional tags, Markdown body with [[wikilinks]]). Read the contract first via "+
			"the get_note_contract tool or the mimir://note-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new note (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the content of an existing note. Pass the checksum from "+
			"a prior read_note to guard against concurrent edits."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New full Markdown content")),
		mcp.WithString("if_match", mcp.Description("Optional checksum the current content must have")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("append_to_note",
		mcp.WithDescription("Append text to a note, optionally at the end of a specific heading's section. "+
			"An unmatched heading falls back to appending at the end of the note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to append")),
		mcp.WithString("heading", mcp.Description("Optional heading text to append under (case-insensitive)")),
	), s.appendToNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note from the vault."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("move_note",
		mcp.WithDescription("Move or rename a note. Links in other notes are NOT rewritten; "+
			"run find_broken_links afterwards to see what needs fixing."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current relative path")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New relative path (must end with .md)")),
	), s.moveNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes with pagination and an optional frontmatter tag filter."),
		mcp.WithNumber("limit", mcp.Description("Maximum notes to return (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Number of notes to skip")),
		mcp.WithString("tag", mcp.Description("Only notes carrying this frontmatter tag")),
		mcp.WithString("sort", mcp.Description("Sort order: updated_at (default), title, or path")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Full-text search through note content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchVault)
}

func (s *Server) registerMetadataTools() {
	s.mcp.AddTool(mcp.NewTool("get_frontmatter",
		mcp.WithDescription("Return a note's parsed YAML frontmatter as JSON, with key order preserved."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
	), s.getFrontmatter)

	s.mcp.AddTool(mcp.NewTool("patch_frontmatter",
		mcp.WithDescription("Set one frontmatter field on a note without touching the body. "+
			"The value is parsed as JSON when possible (numbers, booleans, lists), otherwise stored as a string."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Frontmatter key to set")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value; JSON literals are coerced")),
	), s.patchFrontmatter)

	s.mcp.AddTool(mcp.NewTool("manage_tags",
		mcp.WithDescription("Add and/or remove frontmatter tags on a note. Removal is case-insensitive."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithArray("add", mcp.Description("Tags to add"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithArray("remove", mcp.Description("Tags to remove"), mcp.Items(map[string]any{"type": "string"})),
	), s.manageTags)

	s.mcp.AddTool(mcp.NewTool("add_aliases",
		mcp.WithDescription("Add frontmatter aliases to a note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithArray("aliases", mcp.Required(), mcp.Description("Aliases to add"), mcp.Items(map[string]any{"type": "string"})),
	), s.addAliases)
}

func (s *Server) registerAnalysisTools() {
	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Note name or path to find backlinks for (e.g. ideas or folder/ideas.md)")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("find_broken_links",
		mcp.WithDescription("Scan the vault for wikilinks whose target note does not exist."),
	), s.findBrokenLinks)

	s.mcp.AddTool(mcp.NewTool("find_orphan_notes",
		mcp.WithDescription("Find notes no other note links to."),
		mcp.WithBoolean("include_unlinked", mcp.Description("Also include orphans that themselves link nowhere")),
	), s.findOrphanNotes)

	s.mcp.AddTool(mcp.NewTool("export_graph",
		mcp.WithDescription("Export the vault's link graph as nodes and edges for visualization."),
		mcp.WithNumber("max_notes", mcp.Description("Cap on the number of nodes (default 300)")),
	), s.exportGraph)

	s.mcp.AddTool(mcp.NewTool("summarize_note",
		mcp.WithDescription("Return a plain-text summary of a note with markup stripped."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithNumber("max_length", mcp.Description("Maximum summary length in characters (default 300)")),
	), s.summarizeNote)

	s.mcp.AddTool(mcp.NewTool("get_section",
		mcp.WithDescription("Return the body of the section under a given heading (case-insensitive)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note")),
		mcp.WithString("heading", mcp.Required(), mcp.Description("Heading text to look for")),
	), s.getSection)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}
