package frontmatter

import (
	"reflect"
	"strings"
	"testing"
)

func tagsOf(t *testing.T, content string) []any {
	t.Helper()
	fm, _, _ := Parse(content)
	v, _ := fm.Get("tags")
	items, _ := v.([]any)
	return items
}

func TestAddTags_NormalizesAndAppends(t *testing.T) {
	content := "---\ntitle: T\n---\nBody\n"
	got := AddTags(content, []string{"#alpha", "beta"})
	if want := []any{"alpha", "beta"}; !reflect.DeepEqual(tagsOf(t, got), want) {
		t.Errorf("tags = %v, want %v", tagsOf(t, got), want)
	}
	if !strings.HasSuffix(got, "Body\n") {
		t.Errorf("body not preserved: %q", got)
	}
}

func TestAddTags_Idempotent(t *testing.T) {
	once := AddTags("Body only\n", []string{"x"})
	twice := AddTags(once, []string{"x"})
	if once != twice {
		t.Errorf("second add changed content:\n%q\nvs\n%q", once, twice)
	}
	if want := []any{"x"}; !reflect.DeepEqual(tagsOf(t, twice), want) {
		t.Errorf("tags = %v", tagsOf(t, twice))
	}
}

func TestAddTags_DedupIsExactMatch(t *testing.T) {
	content := AddTags("", []string{"Go"})
	content = AddTags(content, []string{"go"})
	// Add dedup is case-sensitive; both casings survive.
	if want := []any{"Go", "go"}; !reflect.DeepEqual(tagsOf(t, content), want) {
		t.Errorf("tags = %v, want %v", tagsOf(t, content), want)
	}
}

func TestRemoveTags_CaseInsensitive(t *testing.T) {
	content := AddTags("", []string{"Alpha", "beta", "gamma"})
	content = RemoveTags(content, []string{"ALPHA", "#gamma"})
	if want := []any{"beta"}; !reflect.DeepEqual(tagsOf(t, content), want) {
		t.Errorf("tags = %v, want %v", tagsOf(t, content), want)
	}
}

func TestRemoveTags_NoTagsKeyLeavesContentUntouched(t *testing.T) {
	for _, content := range []string{
		"plain body, no frontmatter\n",
		"---\ntitle: T\n---\n\nbody\n",
	} {
		if got := RemoveTags(content, []string{"x"}); got != content {
			t.Errorf("RemoveTags(%q) = %q, want input unchanged", content, got)
		}
	}
}

func TestAddAliases(t *testing.T) {
	content := AddAliases("---\ntitle: T\n---\n", []string{"alt", "alt", "other"})
	fm, _, _ := Parse(content)
	v, _ := fm.Get("aliases")
	if want := []any{"alt", "other"}; !reflect.DeepEqual(v, want) {
		t.Errorf("aliases = %v, want %v", v, want)
	}
}

func TestAllTags_MergesFrontmatterAndInline(t *testing.T) {
	content := "---\ntags:\n  - alpha\n  - beta\n---\nBody with #beta and #inline.\n"
	got := AllTags(content)
	if want := []string{"alpha", "beta", "inline"}; !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags = %v, want %v", got, want)
	}
}

func TestAllTags_NoFrontmatter(t *testing.T) {
	got := AllTags("Just #one tag\n")
	if want := []string{"one"}; !reflect.DeepEqual(got, want) {
		t.Errorf("AllTags = %v, want %v", got, want)
	}
}
