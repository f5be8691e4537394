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

func (s *Server) getFrontmatter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fm, err := s.svc.GetFrontmatter(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if fm.Len() == 0 {
		return mcp.NewToolResultText("{}"), nil
	}
	out, err := json.MarshalIndent(fm, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) patchFrontmatter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// JSON literals become typed values; anything else stays a string.
	var value any = raw
	var parsed any
	if jsonErr := json.Unmarshal([]byte(raw), &parsed); jsonErr == nil {
		value = parsed
	}

	note, err := s.svc.SetFrontmatterField(ctx, path, key, value)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("set %s on %s (checksum %s)", key, note.Path, note.Checksum)), nil
}

func (s *Server) manageTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	add := req.GetStringSlice("add", nil)
	remove := req.GetStringSlice("remove", nil)
	if len(add) == 0 && len(remove) == 0 {
		return mcp.NewToolResultError("nothing to do: provide add and/or remove"), nil
	}

	note, err := s.svc.ModifyTags(ctx, path, add, remove)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("tags on %s: %s", note.Path, strings.Join(note.Tags, ", "))), nil
}

func (s *Server) addAliases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	aliases := req.GetStringSlice("aliases", nil)
	if len(aliases) == 0 {
		return mcp.NewToolResultError("aliases must not be empty"), nil
	}

	note, err := s.svc.AddAliases(ctx, path, aliases)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("aliases added to %s", note.Path)), nil
}
