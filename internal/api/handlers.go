package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/postservice"
	"github.com/starford/dagaz/internal/theme"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *postservice.Service
	themes *theme.Store
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service, themes *theme.Store) *Handler {
	return &Handler{svc: svc, themes: themes}
}

// postSlug extracts the post slug from the URL (everything after /api/posts/).
// Slugs may contain slashes when posts live in subdirectories, and OpenAPI
// clients may send them percent-encoded (e.g. 2025%2F2025-01-15).
func postSlug(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListPosts handles GET /api/posts.
//
//	@Summary		List posts, newest first, with optional filtering
//	@Tags			posts
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			q		query		string	false	"Substring filter on title, description, or content"
//	@Param			sort	query		string	false	"Sort order"	Enums(new, old, title)
//	@Success		200		{object}	PostListResponse
//	@Security		BearerAuth
//	@Router			/posts [get]
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(postservice.ListQuery{
		Query:  q.Get("q"),
		Tag:    q.Get("tag"),
		Sort:   q.Get("sort"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		slog.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// GetPost handles GET /api/posts/*.
//
//	@Summary		Get a single post by slug, rendered, with outline and neighbors
//	@Tags			posts
//	@Produce		json
//	@Param			slug	path		string	true	"Post slug"
//	@Success		200		{object}	PostDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/posts/{slug} [get]
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	slug := postSlug(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	post, err := h.svc.Get(slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get post failed", slog.String("slug", slug), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Tags handles GET /api/tags.
//
//	@Summary		List all tags with post counts
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags()
	if err != nil {
		slog.Error("tags failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if tags == nil {
		tags = []index.TagCount{}
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// TagPosts handles GET /api/tags/{tag}.
//
//	@Summary		List the posts carrying one tag, newest first
//	@Tags			tags
//	@Produce		json
//	@Param			tag	path		string	true	"Tag name"
//	@Success		200	{object}	PostListResponse
//	@Security		BearerAuth
//	@Router			/tags/{tag} [get]
func (h *Handler) TagPosts(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	items, total, err := h.svc.List(postservice.ListQuery{Tag: tag, Limit: 200})
	if err != nil {
		slog.Error("tag posts failed", slog.String("tag", tag), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// Archive handles GET /api/archive.
//
//	@Summary		List archive months, newest first
//	@Tags			archive
//	@Produce		json
//	@Success		200	{object}	ArchiveResponse
//	@Security		BearerAuth
//	@Router			/archive [get]
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	months, err := h.svc.Archive()
	if err != nil {
		slog.Error("archive failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ArchiveResponse{Months: months})
}

// Calendar handles GET /api/calendar/{month}.
//
//	@Summary		Get the calendar grid for one month
//	@Tags			archive
//	@Produce		json
//	@Param			month	path		string	true	"Month in YYYY-MM form"
//	@Success		200		{object}	postservice.CalendarMonth
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/{month} [get]
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	cal, err := h.svc.Calendar(month)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("invalid month"))
		} else {
			slog.Error("calendar failed", slog.String("month", month), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across posts
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// GetTheme handles GET /api/theme.
//
//	@Summary		Get the current color mode
//	@Tags			theme
//	@Produce		json
//	@Success		200	{object}	ThemeResponse
//	@Security		BearerAuth
//	@Router			/theme [get]
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ThemeResponse{Mode: string(h.themes.Get())})
}

// UpdateTheme handles PUT /api/theme.
//
//	@Summary		Set the color mode
//	@Tags			theme
//	@Accept			json
//	@Produce		json
//	@Param			body	body		UpdateThemeRequest	true	"New mode"
//	@Success		200		{object}	ThemeResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/theme [put]
func (h *Handler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)
	var req UpdateThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.themes.Set(theme.Mode(req.Mode)); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be light or dark"))
		return
	}
	writeJSON(w, http.StatusOK, ThemeResponse{Mode: string(h.themes.Get())})
}
