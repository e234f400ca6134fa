package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dagaz/internal/postservice"
	"github.com/starford/dagaz/internal/theme"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *postservice.Service, themes *theme.Store, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, themes)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)

	// Tags and archive.
	r.Get("/tags", h.Tags)
	r.Get("/tags/{tag}", h.TagPosts)
	r.Get("/archive", h.Archive)
	r.Get("/calendar/{month}", h.Calendar)

	// Search.
	r.Get("/search", h.Search)

	// Theme.
	r.Get("/theme", h.GetTheme)
	r.Put("/theme", h.UpdateTheme)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
