// Package parser extracts YAML front matter from Markdown content and
// normalizes it into typed post metadata.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/models"
)

var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter models.Frontmatter
	Body        string
}

// Parse splits raw Markdown into front matter and body and normalizes the
// metadata. It never fails on content: malformed front matter degrades to
// empty metadata with the full input as body, so the post still loads (and
// sorts last under the newest-first comparator).
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: normalize(fm),
		Body:        body,
	}
}

// splitFrontmatter separates YAML front matter (between leading --- fences)
// from the Markdown body. If no front matter is found, or the YAML does not
// parse, the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing fence — treat everything as body.
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}

	return fm, body
}

// normalize coerces raw front matter values into the typed Frontmatter.
// Unexpected value types degrade to zero values rather than erroring.
func normalize(fm map[string]interface{}) models.Frontmatter {
	var out models.Frontmatter
	if fm == nil {
		return out
	}

	if t, ok := fm["title"].(string); ok {
		out.Title = t
	}
	if d, ok := fm["description"].(string); ok {
		out.Description = d
	}
	out.Date = normalizeDate(fm["date"])
	out.Tags = normalizeTags(fm["tags"])
	return out
}

// normalizeDate reduces a raw date value to YYYY-MM-DD form. Structured
// dates are formatted from their local calendar fields; strings keep a
// leading YYYY-MM-DD prefix if one exists, otherwise pass through unchanged.
func normalizeDate(raw interface{}) string {
	switch v := raw.(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case string:
		if m := datePrefixRe.FindString(v); m != "" {
			return m
		}
		return v
	default:
		return ""
	}
}

// normalizeTags coerces a YAML sequence to strings, preserving order and
// duplicates. Any non-sequence value yields nil.
func normalizeTags(raw interface{}) []string {
	seq, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(seq))
	for i, item := range seq {
		if s, ok := item.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprintf("%v", item)
		}
	}
	return out
}
