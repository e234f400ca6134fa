package toc

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Markdown emphasis and code markers are removed without replacement.
	markerRe = regexp.MustCompile("[`*_~]")
	// Runs of anything that is not a Unicode letter or digit collapse to "-".
	nonAlnumRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Slugify converts heading text into a URL-fragment-safe anchor base.
// A heading made entirely of punctuation legitimately slugs to "".
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = markerRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Slugger assigns duplicate-safe anchor ids within one document. The counter
// is keyed by the computed base slug, not the raw text, so headings whose
// text differs only in stripped punctuation ("Setup" vs "Setup!") still
// collide and receive -2, -3 suffixes in order of first appearance.
//
// An empty base keeps the same rule, so a second punctuation-only heading
// gets the literal id "-2". That quirk is kept intentionally: anchors stay
// stable for documents written against the existing behavior.
type Slugger struct {
	seen map[string]int
}

// NewSlugger returns a fresh Slugger. Use one per document so counters
// never leak across renders.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// ID returns the anchor for text: the bare base slug on first occurrence,
// base-N for the Nth occurrence of the same base.
func (s *Slugger) ID(text string) string {
	base := Slugify(text)
	s.seen[base]++
	if n := s.seen[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}
