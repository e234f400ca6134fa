// Package toc derives heading outlines from Markdown content, assigns
// duplicate-safe anchor ids, and tracks which heading is in view while the
// reader scrolls.
package toc

import (
	"regexp"
	"strings"
)

// Heading is one entry in a table of contents.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// ATX headings of depth 1-4 only; deeper levels are not tracked.
var headingRe = regexp.MustCompile(`^(#{1,4}) (.*)$`)

// DeriveHeadings scans raw Markdown line by line for headings and assigns
// anchors with a fresh Slugger, preserving document order. It is a pure
// function of content: calling it twice yields identical output.
//
// The rendered-HTML path in internal/render assigns ids with the same
// Slugger during conversion, so both sources produce identical
// (level, text, id) triples for the same heading sequence.
func DeriveHeadings(content string) []Heading {
	slugger := NewSlugger()
	var out []Heading
	for _, line := range strings.Split(content, "\n") {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		out = append(out, Heading{
			Level: len(m[1]),
			Text:  text,
			ID:    slugger.ID(text),
		})
	}
	return out
}
