package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - mimir\n---\n# Hello\nBody text.\n")
	r := Parse(input)
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "mimir" {
		t.Errorf("tags = %v, want [go mimir]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter.Len() != 0 {
		t.Errorf("expected empty frontmatter, got %d keys", r.Frontmatter.Len())
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParse_MalformedFrontmatterFallback(t *testing.T) {
	input := []byte("---\nno colon on this line\n---\nBody\n")
	r := Parse(input)
	if r.Frontmatter.Len() != 0 {
		t.Errorf("expected empty frontmatter on malformed block")
	}
	if r.Body != string(input) {
		t.Errorf("body = %q, want full input", r.Body)
	}
}

func TestParse_LinkTargetsDeduplicated(t *testing.T) {
	r := Parse([]byte("See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] and [[Note C#Intro]]."))
	want := []string{"Note A", "Note B", "Note C"}
	if len(r.Links) != len(want) {
		t.Fatalf("links = %v, want %v", r.Links, want)
	}
	for i, w := range want {
		if r.Links[i] != w {
			t.Errorf("link %d = %q, want %q", i, r.Links[i], w)
		}
	}
}

func TestParse_TagsMergeFrontmatterAndInline(t *testing.T) {
	r := Parse([]byte("---\ntags:\n  - alpha\n---\nSome text #beta and #alpha again."))
	if len(r.Tags) != 2 || r.Tags[0] != "alpha" || r.Tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", r.Tags)
	}
}

func TestParse_TitleFrontmatterOverH1(t *testing.T) {
	r := Parse([]byte("---\ntitle: FM Title\n---\n# H1 Title\ntext"))
	if r.Title != "FM Title" {
		t.Errorf("title = %q, want %q", r.Title, "FM Title")
	}
}

func TestParse_TitleH1Fallback(t *testing.T) {
	r := Parse([]byte("some text\n# My Heading\nmore"))
	if r.Title != "My Heading" {
		t.Errorf("title = %q, want %q", r.Title, "My Heading")
	}
}
