package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
)

// validDateGlob matches a date column that starts with a canonical
// YYYY-MM-DD value; anything else sorts last and groups as undated.
const validDateGlob = `[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]*`

// sortDateExpr blanks non-canonical dates so they sort last under DESC.
const sortDateExpr = `CASE WHEN date GLOB '` + validDateGlob + `' THEN date ELSE '' END`

// UndatedMonth is the archive bucket for posts without a canonical date.
const UndatedMonth = "undated"

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

// PostRow represents a row in the posts table.
type PostRow struct {
	Slug        string
	Title       string
	Description string
	Date        string
	DailyIndex  int
	Tags        []string
	Checksum    string
	UpdatedAt   time.Time
}

// SearchResult represents one full-text search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// TagCount is a tag with the number of posts carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MonthCount is an archive group: a YYYY-MM month (or the undated bucket)
// with its post count.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// UpsertPost inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) UpsertPost(p PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(p.Tags)

	_, err = tx.Exec(`
		INSERT INTO posts (slug, title, description, date, daily_idx, tags, body, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title       = excluded.title,
			description = excluded.description,
			date        = excluded.date,
			daily_idx   = excluded.daily_idx,
			tags        = excluded.tags,
			body        = excluded.body,
			checksum    = excluded.checksum,
			updated_at  = excluded.updated_at
	`, p.Slug, p.Title, p.Description, p.Date, p.DailyIndex, string(tagsJSON), body, p.Checksum, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, p.Slug, p.Title, p.Description, body, p.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	_, _ = tx.Exec(`DELETE FROM posts WHERE slug = ?`, slug)

	return tx.Commit()
}

// GetPost returns the stored row for a slug, or nil when absent.
func (db *DB) GetPost(slug string) (*PostRow, error) {
	row := db.conn.QueryRow(`
		SELECT slug, title, description, date, daily_idx, tags, checksum, updated_at
		FROM posts WHERE slug = ?
	`, slug)
	p, err := scanPostRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return p, nil
}

// GetChecksum returns the stored checksum for a slug, or empty string if
// not found.
func (db *DB) GetChecksum(slug string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE slug = ?`, slug).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListPosts returns a page of posts with optional tag filter and total count.
// sort is one of "new" (default: date desc, daily index desc, slug desc —
// the same comparator the repository uses), "old", or "title".
func (db *DB) ListPosts(limit, offset int, tag, sort string) ([]PostRow, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []interface{}{}
	if tag != "" {
		where = `WHERE tags LIKE '%"' || ? || '"%'`
		args = append(args, tag)
	}

	var order string
	switch sort {
	case "old":
		order = sortDateExpr + ` ASC, daily_idx ASC, slug ASC`
	case "title":
		order = `title COLLATE NOCASE ASC, slug ASC`
	default:
		order = sortDateExpr + ` DESC, daily_idx DESC, slug DESC`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	query := `
		SELECT slug, title, description, date, daily_idx, tags, checksum, updated_at
		FROM posts ` + where + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	out, err := scanPostRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListByMonth returns the posts of one YYYY-MM archive month, oldest first
// within the month. The special month "undated" returns posts whose date is
// missing or not canonical.
func (db *DB) ListByMonth(month string) ([]PostRow, error) {
	var (
		rows *sql.Rows
		err  error
	)
	switch {
	case month == UndatedMonth:
		rows, err = db.conn.Query(`
			SELECT slug, title, description, date, daily_idx, tags, checksum, updated_at
			FROM posts
			WHERE date NOT GLOB '`+validDateGlob+`'
			ORDER BY slug DESC`)
	case monthRe.MatchString(month):
		rows, err = db.conn.Query(`
			SELECT slug, title, description, date, daily_idx, tags, checksum, updated_at
			FROM posts
			WHERE date GLOB '`+validDateGlob+`' AND date LIKE ? || '-%'
			ORDER BY date ASC, daily_idx ASC, slug ASC`, month)
	default:
		return nil, fmt.Errorf("index: invalid month %q", month)
	}
	if err != nil {
		return nil, fmt.Errorf("index: list by month: %w", err)
	}
	defer rows.Close()
	return scanPostRows(rows)
}

// Tags returns every distinct tag with its post count, sorted by name.
// Duplicate tags within one post count once.
func (db *DB) Tags() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT tags FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: tags: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			continue
		}
		seen := make(map[string]struct{}, len(tags))
		for _, t := range tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			counts[t]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, TagCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Months returns archive groups newest month first, with the undated bucket
// (if any) appended last.
func (db *DB) Months() ([]MonthCount, error) {
	rows, err := db.conn.Query(`
		SELECT substr(date, 1, 7) AS month, count(*)
		FROM posts
		WHERE date GLOB '` + validDateGlob + `'
		GROUP BY month
		ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("index: months: %w", err)
	}
	defer rows.Close()

	var out []MonthCount
	for rows.Next() {
		var m MonthCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var undated int
	if err := db.conn.QueryRow(`
		SELECT count(*) FROM posts WHERE date NOT GLOB '` + validDateGlob + `'
	`).Scan(&undated); err != nil {
		return nil, fmt.Errorf("index: undated count: %w", err)
	}
	if undated > 0 {
		out = append(out, MonthCount{Month: UndatedMonth, Count: undated})
	}
	return out, nil
}

// AllChecksums returns slug → checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var slug, cs string
		if err := rows.Scan(&slug, &cs); err != nil {
			return nil, err
		}
		out[slug] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPostRow(r rowScanner) (*PostRow, error) {
	var p PostRow
	var tagsJSON string
	if err := r.Scan(&p.Slug, &p.Title, &p.Description, &p.Date, &p.DailyIndex, &tagsJSON, &p.Checksum, &p.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	return &p, nil
}

func scanPostRows(rows *sql.Rows) ([]PostRow, error) {
	var out []PostRow
	for rows.Next() {
		p, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
