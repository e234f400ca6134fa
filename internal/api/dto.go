package api

import (
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/postservice"
)

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListItem is a lightweight item in a list response (aliased from the domain layer).
type PostListItem = postservice.PostListItem

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []PostListItem `json:"posts" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// TagsResponse wraps the tag listing.
type TagsResponse struct {
	Tags []index.TagCount `json:"tags" validate:"required"`
}

// ArchiveResponse wraps the archive month listing.
type ArchiveResponse struct {
	Months []index.MonthCount `json:"months" validate:"required"`
}

// ThemeResponse is the current color mode.
type ThemeResponse struct {
	Mode string `json:"mode" example:"dark" validate:"required"`
}

// UpdateThemeRequest is the request body for setting the color mode.
type UpdateThemeRequest struct {
	Mode string `json:"mode" example:"dark" validate:"required"`
}
