// Package api exposes a read-only HTTP view of the vault alongside the
// SSE change feed. Mutations go through the MCP surface.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mimir-notes/mimir/internal/noteservice"
)

// Handler holds the HTTP handlers for the read-only API.
type Handler struct {
	svc    *noteservice.Service
	logger *slog.Logger
}

// NewHandler creates the API handler set.
func NewHandler(svc *noteservice.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type listResponse struct {
	Notes  []noteservice.NoteListItem `json:"notes"`
	Total  int                        `json:"total"`
	Limit  int                        `json:"limit"`
	Offset int                        `json:"offset"`
}

func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := intQuery(q.Get("limit"), 50)
	offset := intQuery(q.Get("offset"), 0)

	notes, total, err := h.svc.ListNotes(r.Context(), limit, offset, q.Get("tag"), q.Get("sort"))
	if err != nil {
		h.logger.Error("list notes", slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Notes: notes, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing note path")
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

type searchResponse struct {
	Query   string `json:"query"`
	Results any    `json:"results"`
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := intQuery(r.URL.Query().Get("limit"), 20)

	results, err := h.svc.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("search", slog.String("query", query), slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

func (h *Handler) graph(w http.ResponseWriter, r *http.Request) {
	maxNotes := intQuery(r.URL.Query().Get("max_notes"), 0)
	export, err := h.svc.ExportGraph(r.Context(), maxNotes)
	if err != nil {
		h.logger.Error("export graph", slog.String("error", err.Error()))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

type backlinksResponse struct {
	Target    string   `json:"target"`
	Backlinks []string `json:"backlinks"`
}

func (h *Handler) backlinks(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("target"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter target")
		return
	}
	links, err := h.svc.Backlinks(r.Context(), target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, backlinksResponse{Target: target, Backlinks: links})
}

func (h *Handler) brokenLinks(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.BrokenLinks(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type orphansResponse struct {
	Orphans []string `json:"orphans"`
}

func (h *Handler) orphans(w http.ResponseWriter, r *http.Request) {
	includeUnlinked := r.URL.Query().Get("include_unlinked") == "true"
	orphans, err := h.svc.Orphans(r.Context(), includeUnlinked)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orphansResponse{Orphans: orphans})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func intQuery(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
