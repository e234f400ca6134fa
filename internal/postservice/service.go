// Package postservice coordinates the in-memory post list, the search index,
// and the markdown renderer for the API and MCP layers.
package postservice

import (
	"slices"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/index"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/render"
	"github.com/starford/dagaz/internal/repository"
	"github.com/starford/dagaz/internal/toc"
)

// Service answers post queries. Reads go to the in-memory repository for
// ordering and detail; search, tag counts, and archive grouping go to the
// SQLite index.
type Service struct {
	repo     *repository.Repository
	db       index.PostIndex
	renderer *render.Renderer
}

// NewService creates a post service.
func NewService(repo *repository.Repository, db index.PostIndex, renderer *render.Renderer) *Service {
	return &Service{repo: repo, db: db, renderer: renderer}
}

// PostRef is a lightweight pointer to a neighboring post.
type PostRef struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Date       string   `json:"date,omitempty"`
	CommonTags []string `json:"common_tags,omitempty"`
}

// PostDetail is the full response payload for a single post.
type PostDetail struct {
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Date        string        `json:"date,omitempty"`
	Tags        []string      `json:"tags"`
	Content     string        `json:"content"`
	HTML        string        `json:"html"`
	Headings    []toc.Heading `json:"headings"`
	Prev        *PostRef      `json:"prev,omitempty"`
	Next        *PostRef      `json:"next,omitempty"`
}

// PostListItem is a lightweight item in a list response.
type PostListItem struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date,omitempty"`
	Tags        []string `json:"tags"`
}

// Get returns a fully rendered post with its outline and neighbor refs.
// Returns apperr.ErrNotFound when the slug is unknown.
func (s *Service) Get(slug string) (*PostDetail, error) {
	post, ok := s.repo.Get(slug)
	if !ok {
		return nil, apperr.ErrNotFound
	}

	res, err := s.renderer.Render(post.Content)
	if err != nil {
		return nil, err
	}

	fm := post.Frontmatter
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	headings := res.Headings
	if headings == nil {
		headings = []toc.Heading{}
	}

	prev, next := s.repo.Neighbors(slug)
	return &PostDetail{
		Slug:        post.Slug,
		Title:       fm.Title,
		Description: fm.Description,
		Date:        fm.Date,
		Tags:        tags,
		Content:     post.Content,
		HTML:        res.HTML,
		Headings:    headings,
		Prev:        s.ref(prev, fm.Tags),
		Next:        s.ref(next, fm.Tags),
	}, nil
}

// ref builds a PostRef for a neighbor, annotated with the tags it shares
// with the current post.
func (s *Service) ref(p *models.Post, currentTags []string) *PostRef {
	if p == nil {
		return nil
	}
	var common []string
	for _, t := range p.Frontmatter.Tags {
		if slices.Contains(currentTags, t) && !slices.Contains(common, t) {
			common = append(common, t)
		}
	}
	return &PostRef{
		Slug:       p.Slug,
		Title:      p.Frontmatter.Title,
		Date:       p.Frontmatter.Date,
		CommonTags: common,
	}
}

// ListQuery selects and orders posts for List.
type ListQuery struct {
	Query  string // substring match on title, description, or content
	Tag    string // exact tag match
	Sort   string // "new" (default), "old", or "title"
	Limit  int
	Offset int
}

// List filters the in-memory post list and returns a page plus the total
// number of matches. The default order is the repository's: newest first.
func (s *Service) List(q ListQuery) ([]PostListItem, int, error) {
	// All returns the repository's shared slice; clone before reordering.
	posts := slices.Clone(s.repo.All())

	if q.Tag != "" || q.Query != "" {
		needle := strings.ToLower(q.Query)
		filtered := posts[:0:0]
		for _, p := range posts {
			if q.Tag != "" && !slices.Contains(p.Frontmatter.Tags, q.Tag) {
				continue
			}
			if needle != "" && !matches(p, needle) {
				continue
			}
			filtered = append(filtered, p)
		}
		posts = filtered
	}

	switch q.Sort {
	case "old":
		slices.Reverse(posts)
	case "title":
		slices.SortStableFunc(posts, func(a, b models.Post) int {
			return strings.Compare(strings.ToLower(a.Frontmatter.Title), strings.ToLower(b.Frontmatter.Title))
		})
	}

	total := len(posts)

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := posts[offset:end]

	items := make([]PostListItem, len(page))
	for i, p := range page {
		tags := p.Frontmatter.Tags
		if tags == nil {
			tags = []string{}
		}
		items[i] = PostListItem{
			Slug:        p.Slug,
			Title:       p.Frontmatter.Title,
			Description: p.Frontmatter.Description,
			Date:        p.Frontmatter.Date,
			Tags:        tags,
		}
	}
	return items, total, nil
}

func matches(p models.Post, needle string) bool {
	return strings.Contains(strings.ToLower(p.Frontmatter.Title), needle) ||
		strings.Contains(strings.ToLower(p.Frontmatter.Description), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle)
}

// Tags returns every tag with its post count.
func (s *Service) Tags() ([]index.TagCount, error) {
	return s.db.Tags()
}

// Archive returns archive months, newest first, undated bucket last.
func (s *Service) Archive() ([]index.MonthCount, error) {
	return s.db.Months()
}

// Search delegates to the index.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// CalendarDay is one day cell in a calendar month.
type CalendarDay struct {
	Day   int      `json:"day"`
	Slugs []string `json:"slugs,omitempty"`
}

// CalendarMonth is a month grid: the weekday the month starts on
// (0 = Sunday) and one cell per day.
type CalendarMonth struct {
	Month        string        `json:"month"`
	StartWeekday int           `json:"start_weekday"`
	Days         []CalendarDay `json:"days"`
}

// Calendar builds the calendar grid for a YYYY-MM month, mapping each day
// to the slugs of that day's posts.
func (s *Service) Calendar(month string) (*CalendarMonth, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, apperr.ErrNotFound
	}

	rows, err := s.db.ListByMonth(month)
	if err != nil {
		return nil, err
	}

	byDay := make(map[int][]string)
	for _, r := range rows {
		d, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			continue
		}
		byDay[d.Day()] = append(byDay[d.Day()], r.Slug)
	}

	daysInMonth := first.AddDate(0, 1, -1).Day()
	days := make([]CalendarDay, daysInMonth)
	for i := range days {
		days[i] = CalendarDay{Day: i + 1, Slugs: byDay[i+1]}
	}

	return &CalendarMonth{
		Month:        month,
		StartWeekday: int(first.Weekday()),
		Days:         days,
	}, nil
}
