package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mimir-notes/mimir/internal/apperr"
)

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	backlinks, err := s.svc.Backlinks(ctx, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(backlinks) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(backlinks, "\n")), nil
}

func (s *Server) findBrokenLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.BrokenLinks(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(report.Broken) == 0 && !report.Truncated {
		return mcp.NewToolResultText(fmt.Sprintf("no broken links (%d files checked)", report.FilesChecked)), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findOrphanNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeUnlinked := req.GetBool("include_unlinked", false)

	orphans, err := s.svc.Orphans(ctx, includeUnlinked)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(orphans) == 0 {
		return mcp.NewToolResultText("no orphan notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(orphans, "\n")), nil
}

func (s *Server) exportGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maxNotes := req.GetInt("max_notes", 0)

	export, err := s.svc.ExportGraph(ctx, maxNotes)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(export, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) summarizeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxLength := req.GetInt("max_length", 300)

	summary, err := s.svc.Summarize(ctx, path, maxLength)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if summary == "" {
		return mcp.NewToolResultText("(empty note)"), nil
	}
	return mcp.NewToolResultText(summary), nil
}

func (s *Server) getSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	heading, err := req.RequireString("heading")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	section, ok, err := s.svc.Section(ctx, path, heading)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("heading not found: %s", heading)), nil
	}
	return mcp.NewToolResultText(section), nil
}
