package parser

import (
	"reflect"
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndate: \"2025-03-05\"\ntags:\n  - go\n  - til\n---\n# Hello\nBody text.\n")
	r := Parse(input)
	if r.Frontmatter.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Frontmatter.Title, "Hello")
	}
	if r.Frontmatter.Date != "2025-03-05" {
		t.Errorf("date = %q, want 2025-03-05", r.Frontmatter.Date)
	}
	if !reflect.DeepEqual(r.Frontmatter.Tags, []string{"go", "til"}) {
		t.Errorf("tags = %v, want [go til]", r.Frontmatter.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r := Parse(input)
	if r.Frontmatter.Title != "" {
		t.Errorf("title = %q, want empty", r.Frontmatter.Title)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_MalformedYAMLDegradesToEmpty(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r := Parse(input)
	if r.Frontmatter.Title != "" || r.Frontmatter.Date != "" || r.Frontmatter.Tags != nil {
		t.Errorf("expected empty frontmatter, got %+v", r.Frontmatter)
	}
	// The whole input survives as body so the post still appears.
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoClosingFence(t *testing.T) {
	input := []byte("---\ntitle: Oops\nno closing fence")
	r := Parse(input)
	if r.Frontmatter.Title != "" {
		t.Errorf("title = %q, want empty", r.Frontmatter.Title)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestNormalizeDate_StructuredDate(t *testing.T) {
	// Time-of-day must not leak into the formatted value.
	d := time.Date(2025, time.March, 5, 23, 59, 0, 0, time.Local)
	if got := normalizeDate(d); got != "2025-03-05" {
		t.Errorf("normalizeDate = %q, want 2025-03-05", got)
	}
}

func TestNormalizeDate_StringForms(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2025-01-02", "2025-01-02"},
		{"2025-01-02T10:30:00", "2025-01-02"},
		{"2025-01-02 afternoon", "2025-01-02"},
		{"sometime in march", "sometime in march"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalizeDate(c.in); got != c.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeDate_UnsupportedType(t *testing.T) {
	if got := normalizeDate(20250102); got != "" {
		t.Errorf("normalizeDate(int) = %q, want empty", got)
	}
}

func TestNormalizeTags_CoercionAndDuplicates(t *testing.T) {
	got := normalizeTags([]interface{}{"go", 42, "go", true})
	want := []string{"go", "42", "go", "true"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags = %v, want %v", got, want)
	}
}

func TestNormalizeTags_NonSequence(t *testing.T) {
	if got := normalizeTags("not-a-list"); got != nil {
		t.Errorf("tags = %v, want nil", got)
	}
}

func TestNormalize_TitleMustBeString(t *testing.T) {
	fm := map[string]interface{}{"title": 123, "description": []string{"x"}}
	out := normalize(fm)
	if out.Title != "" {
		t.Errorf("title = %q, want empty", out.Title)
	}
	if out.Description != "" {
		t.Errorf("description = %q, want empty", out.Description)
	}
}
