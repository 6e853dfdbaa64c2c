package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nanofield/nanofield/internal/scanservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *scanservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/scans", h.ListScans)
	r.Get("/scans/*", h.GetScan)

	// Decoded channel grids.
	r.Get("/grids/*", h.GetChannel)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
