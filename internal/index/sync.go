package index

import (
	"log/slog"
	"time"

	"github.com/starford/dagaz/internal/checksum"
	"github.com/starford/dagaz/internal/parser"
	"github.com/starford/dagaz/internal/repository"
	"github.com/starford/dagaz/internal/storage"
)

// Sync walks the content tree and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// A single bad file is logged and skipped; it never aborts the pass.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		slug := repository.Slug(m.Path)
		disk[slug] = struct{}{}

		if checksums[slug] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("slug", slug))
		}
	}

	// Remove stale entries.
	for slug := range checksums {
		if _, ok := disk[slug]; !ok {
			if err := db.DeletePost(slug); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", slug), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", slug))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB under the path's slug.
func indexFile(db *DB, path string, data []byte) error {
	res := parser.Parse(data)
	slug := repository.Slug(path)

	row := PostRow{
		Slug:        slug,
		Title:       res.Frontmatter.Title,
		Description: res.Frontmatter.Description,
		Date:        res.Frontmatter.Date,
		DailyIndex:  repository.DailyIndex(slug),
		Tags:        res.Frontmatter.Tags,
		Checksum:    checksum.Sum(data),
		UpdatedAt:   time.Now(),
	}
	return db.UpsertPost(row, res.Body)
}
