// Package models defines the domain types for Dagaz.
package models

import "time"

// Frontmatter is the normalized metadata block of a post. Date, when
// present, is always in YYYY-MM-DD form unless the source supplied a
// string the normalizer could not reduce, which is passed through as-is.
type Frontmatter struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Post represents one Markdown entry in the content tree. The slug is the
// path relative to the content root with the .md extension removed. Posts
// are immutable once loaded; the whole set is replaced on each load.
type Post struct {
	Slug        string      `json:"slug"`
	Frontmatter Frontmatter `json:"frontmatter"`
	Content     string      `json:"content"`
}

// PostMetadata is a lightweight representation returned by storage listings.
type PostMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
