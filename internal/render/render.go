// Package render converts Markdown bodies to sanitized HTML and collects
// the heading outline assigned during rendering. Anchor ids follow the same
// slug contract as toc.DeriveHeadings, so either source yields the same
// outline for the same heading sequence.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/dagaz/internal/toc"
)

// outlineKey carries the collected outline from the AST transformer to the
// Render call through the per-conversion parser context.
var outlineKey = parser.NewContextKey()

// Result holds rendered HTML and the heading outline in document order.
type Result struct {
	HTML     string
	Headings []toc.Heading
}

// Renderer renders Markdown with GFM tables/strikethrough/autolinks,
// footnotes, and duplicate-safe heading anchors. Output is sanitized with a
// UGC policy that keeps heading ids.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a Renderer.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithParserOptions(
				parser.WithASTTransformers(
					util.Prioritized(&anchorTransformer{}, 100),
				),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
		policy: policy,
	}
}

// Render converts content to sanitized HTML and returns it together with
// the outline of headings that received anchors.
func (r *Renderer) Render(content string) (*Result, error) {
	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := r.md.Convert([]byte(content), &buf, parser.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	headings, _ := ctx.Get(outlineKey).([]toc.Heading)
	return &Result{
		HTML:     r.policy.Sanitize(buf.String()),
		Headings: headings,
	}, nil
}

// anchorTransformer assigns duplicate-safe ids to headings of depth 1-4 and
// records the outline. A fresh Slugger per document keeps ids stable across
// renders; deeper headings render without anchors and are not tracked.
type anchorTransformer struct{}

func (t *anchorTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	slugger := toc.NewSlugger()
	src := reader.Source()
	var outline []toc.Heading

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > 4 {
			return ast.WalkContinue, nil
		}
		text := strings.TrimSpace(plainText(h, src))
		id := slugger.ID(text)
		h.SetAttributeString("id", []byte(id))
		outline = append(outline, toc.Heading{Level: h.Level, Text: text, ID: id})
		return ast.WalkContinue, nil
	})

	pc.Set(outlineKey, outline)
}

// plainText flattens a node's inline content to text, dropping markup.
func plainText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
