package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mimir-notes/mimir/internal/noteservice"
	"github.com/mimir-notes/mimir/internal/sse"
)

// NewRouter assembles the HTTP routes. authToken empty disables auth.
func NewRouter(svc *noteservice.Service, broker *sse.Broker, authToken string, logger *slog.Logger) http.Handler {
	h := NewHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		if authToken != "" {
			r.Use(AuthMiddleware(authToken))
		}
		r.Get("/notes", h.listNotes)
		r.Get("/notes/*", h.getNote)
		r.Get("/search", h.search)
		r.Get("/graph", h.graph)
		r.Get("/backlinks", h.backlinks)
		r.Get("/broken-links", h.brokenLinks)
		r.Get("/orphans", h.orphans)
		if broker != nil {
			r.Get("/events", broker.ServeHTTP)
		}
	})

	return r
}
