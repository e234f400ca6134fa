package toc

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Setup", "setup"},
		{"  Hello World  ", "hello-world"},
		{"C++ Basics!!", "c-basics"},
		{"`code` and *emphasis*", "code-and-emphasis"},
		{"snake_case_name", "snakecasename"},
		{"포인터와 slice", "포인터와-slice"},
		{"v1.2.3", "v1-2-3"},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugger_DisambiguatesByComputedBase(t *testing.T) {
	// "Setup!" collides with "Setup" only after punctuation stripping; the
	// counter must key on the computed base, not the raw text.
	s := NewSlugger()
	got := []string{s.ID("Setup"), s.ID("Setup"), s.ID("Setup!")}
	want := []string{"setup", "setup-2", "setup-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSlugger_FirstOccurrenceKeepsBase(t *testing.T) {
	s := NewSlugger()
	if id := s.ID("Intro"); id != "intro" {
		t.Errorf("id = %q, want intro", id)
	}
	if id := s.ID("Other"); id != "other" {
		t.Errorf("id = %q, want other", id)
	}
}

func TestSlugger_EmptyBaseQuirk(t *testing.T) {
	// A second punctuation-only heading yields the literal id "-2". Kept
	// as-is so anchors stay stable for existing documents.
	s := NewSlugger()
	if id := s.ID("!!!"); id != "" {
		t.Errorf("first id = %q, want empty", id)
	}
	if id := s.ID("???"); id != "-2" {
		t.Errorf("second id = %q, want -2", id)
	}
}
