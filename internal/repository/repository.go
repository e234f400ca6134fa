// Package repository loads the Markdown content tree into a deterministically
// ordered, atomically swapped post list.
package repository

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/storage"
)

var (
	dailyNameRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:-(\d+))?$`)
	trailingNumRe = regexp.MustCompile(`-(\d+)$`)
)

// loadConcurrency bounds parallel content reads during a full load.
const loadConcurrency = 8

// Repository holds the current post set. LoadAll replaces the whole ordered
// slice as one unit, so readers never observe a partially updated list.
type Repository struct {
	mu    sync.RWMutex
	posts []models.Post
}

// New creates an empty repository.
func New() *Repository {
	return &Repository{}
}

// LoadAll reads every Markdown document from store, parses and normalizes
// front matter, sorts the result newest-first, and swaps it in atomically.
// Documents with malformed front matter still load (empty metadata, so they
// sort last); only an unreadable file aborts the load, leaving the previous
// result visible.
func (r *Repository) LoadAll(ctx context.Context, store storage.Provider) error {
	metas, err := store.List("")
	if err != nil {
		return fmt.Errorf("repository: list: %w", err)
	}

	posts := make([]models.Post, len(metas))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, m := range metas {
		g.Go(func() error {
			data, err := store.Read(m.Path)
			if err != nil {
				return fmt.Errorf("repository: read %s: %w", m.Path, err)
			}
			res := parser.Parse(data)
			posts[i] = models.Post{
				Slug:        Slug(m.Path),
				Frontmatter: res.Frontmatter,
				Content:     res.Body,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slices.SortFunc(posts, Compare)

	r.mu.Lock()
	r.posts = posts
	r.mu.Unlock()
	return nil
}

// All returns the current ordered snapshot. The slice is replaced wholesale
// on reload, never mutated, so callers may keep it.
func (r *Repository) All() []models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.posts
}

// Len returns the number of loaded posts.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts)
}

// Get returns the post with the given slug.
func (r *Repository) Get(slug string) (models.Post, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return models.Post{}, false
}

// Neighbors returns the posts adjacent to slug in newest-first order:
// prev is the next older post, next the next newer one.
func (r *Repository) Neighbors(slug string) (prev, next *models.Post) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.posts {
		if r.posts[i].Slug != slug {
			continue
		}
		if i+1 < len(r.posts) {
			p := r.posts[i+1]
			prev = &p
		}
		if i > 0 {
			n := r.posts[i-1]
			next = &n
		}
		return prev, next
	}
	return nil, nil
}

// Slug derives a post slug from a content-relative path: forward slashes,
// .md extension removed.
func Slug(path string) string {
	return strings.TrimSuffix(strings.ReplaceAll(path, "\\", "/"), ".md")
}

// Compare orders posts newest-first: date descending with missing or
// unparseable dates sorting last, then daily index descending, then slug
// descending. The order is total and reproducible from the same input set.
func Compare(a, b models.Post) int {
	ad, bd := dateStamp(a.Frontmatter.Date), dateStamp(b.Frontmatter.Date)
	if ad != bd {
		if ad > bd {
			return -1
		}
		return 1
	}
	ai, bi := DailyIndex(a.Slug), DailyIndex(b.Slug)
	if ai != bi {
		if ai > bi {
			return -1
		}
		return 1
	}
	return strings.Compare(b.Slug, a.Slug)
}

// DailyIndex extracts the implicit same-day ordering number from the final
// slug segment: "2025-01-02-3" yields 3, "2025-01-02" yields 0. A final
// segment that is not a date but ends in "-<digits>" yields that integer;
// anything else yields 0.
func DailyIndex(slug string) int {
	name := slug
	if i := strings.LastIndex(slug, "/"); i >= 0 && i+1 < len(slug) {
		name = slug[i+1:]
	}
	if m := dailyNameRe.FindStringSubmatch(name); m != nil {
		if m[2] == "" {
			return 0
		}
		n, _ := strconv.Atoi(m[2])
		return n
	}
	if m := trailingNumRe.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// dateStamp parses a normalized YYYY-MM-DD date into a sort key. Missing or
// unparseable dates map to 0 and therefore sort last under newest-first.
func dateStamp(date string) int64 {
	if date == "" {
		return 0
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0
	}
	return t.Unix()
}
