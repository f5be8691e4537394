package noteservice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mimir-notes/mimir/internal/apperr"
	"github.com/mimir-notes/mimir/internal/vault"
)

func testService(t *testing.T, files map[string]string) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	acc, err := vault.NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	svc := NewService(acc, nil, AnalyzerConfig{
		MaxNotes:    100,
		Concurrency: 4,
		Timeout:     5 * time.Second,
	})
	return svc, dir
}

func TestCreateNote_RejectsExisting(t *testing.T) {
	svc, _ := testService(t, map[string]string{"a.md": "# A\n"})
	ctx := context.Background()

	if _, err := svc.CreateNote(ctx, "a.md", []byte("again")); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	detail, err := svc.CreateNote(ctx, "b.md", []byte("# B\n\nbody\n"))
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if detail.Title != "B" {
		t.Errorf("title = %q, want B", detail.Title)
	}
	if detail.Checksum == "" {
		t.Error("expected a checksum")
	}
}

func TestUpdateNote_ChecksumGuard(t *testing.T) {
	svc, _ := testService(t, map[string]string{"a.md": "old"})
	ctx := context.Background()

	if _, err := svc.UpdateNote(ctx, "a.md", []byte("new"), "deadbeef"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale checksum, got %v", err)
	}
	current, err := svc.GetNote(ctx, "a.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	detail, err := svc.UpdateNote(ctx, "a.md", []byte("new"), current.Checksum)
	if err != nil {
		t.Fatalf("UpdateNote with matching checksum: %v", err)
	}
	if detail.Content != "new" {
		t.Errorf("content = %q, want new", detail.Content)
	}
	// Empty ifMatch skips the guard.
	if _, err := svc.UpdateNote(ctx, "a.md", []byte("newer"), ""); err != nil {
		t.Fatalf("UpdateNote without checksum: %v", err)
	}
}

func TestAppendToNote(t *testing.T) {
	svc, _ := testService(t, map[string]string{
		"a.md": "# A\n\n## Log\n\nfirst\n\n## Other\n\ntext\n",
	})
	ctx := context.Background()

	detail, err := svc.AppendToNote(ctx, "a.md", "second", "Log")
	if err != nil {
		t.Fatalf("AppendToNote: %v", err)
	}
	logSection, ok, err := svc.Section(ctx, "a.md", "Log")
	if err != nil || !ok {
		t.Fatalf("Section: ok=%v err=%v", ok, err)
	}
	if !strings.Contains(logSection, "first") || !strings.Contains(logSection, "second") {
		t.Errorf("Log section = %q, want both entries", logSection)
	}
	if other, _, _ := svc.Section(ctx, "a.md", "Other"); strings.Contains(other, "second") {
		t.Errorf("appended text leaked into Other section: %q", other)
	}

	// Unknown heading falls back to appending at the end.
	detail, err = svc.AppendToNote(ctx, "a.md", "tail", "Nope")
	if err != nil {
		t.Fatalf("AppendToNote fallback: %v", err)
	}
	if !strings.HasSuffix(detail.Content, "tail\n") {
		t.Errorf("content should end with fallback append, got %q", detail.Content)
	}
}

func TestMoveNote(t *testing.T) {
	svc, _ := testService(t, map[string]string{"a.md": "# A\n", "b.md": "# B\n"})
	ctx := context.Background()

	if err := svc.MoveNote(ctx, "a.md", "b.md"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists moving onto b.md, got %v", err)
	}
	if err := svc.MoveNote(ctx, "a.md", "sub/c.md"); err != nil {
		t.Fatalf("MoveNote: %v", err)
	}
	if _, err := svc.GetNote(ctx, "a.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old path should be gone, got %v", err)
	}
	if _, err := svc.GetNote(ctx, "sub/c.md"); err != nil {
		t.Errorf("new path should exist: %v", err)
	}
}

func TestModifyTags(t *testing.T) {
	svc, _ := testService(t, map[string]string{
		"a.md": "---\ntags: [keep, drop]\n---\n\nbody\n",
	})
	ctx := context.Background()

	detail, err := svc.ModifyTags(ctx, "a.md", []string{"new"}, []string{"drop"})
	if err != nil {
		t.Fatalf("ModifyTags: %v", err)
	}
	got := strings.Join(detail.Tags, ",")
	if !strings.Contains(got, "keep") || !strings.Contains(got, "new") {
		t.Errorf("tags = %v, want keep and new", detail.Tags)
	}
	if strings.Contains(got, "drop") {
		t.Errorf("tags = %v, drop should be removed", detail.Tags)
	}
}

func TestSetFrontmatterField_PreservesBody(t *testing.T) {
	svc, _ := testService(t, map[string]string{
		"a.md": "---\ntitle: A\n---\n\nexact body\n",
	})
	ctx := context.Background()

	detail, err := svc.SetFrontmatterField(ctx, "a.md", "status", "done")
	if err != nil {
		t.Fatalf("SetFrontmatterField: %v", err)
	}
	if !strings.HasSuffix(detail.Content, "\nexact body\n") {
		t.Errorf("body mutated: %q", detail.Content)
	}
	fm, err := svc.GetFrontmatter(ctx, "a.md")
	if err != nil {
		t.Fatalf("GetFrontmatter: %v", err)
	}
	if v, ok := fm.Get("status"); !ok || v != "done" {
		t.Errorf("status = %v (ok=%v), want done", v, ok)
	}
}

func TestAnalysisOperations(t *testing.T) {
	svc, _ := testService(t, map[string]string{
		"a.md": "links to [[b]] and [[missing]]\n",
		"b.md": "plain\n",
		"c.md": "island with [[a]]\n",
	})
	ctx := context.Background()

	back, err := svc.Backlinks(ctx, "b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(back) != 1 || back[0] != "a.md" {
		t.Errorf("Backlinks(b) = %v, want [a.md]", back)
	}

	report, err := svc.BrokenLinks(ctx)
	if err != nil {
		t.Fatalf("BrokenLinks: %v", err)
	}
	if len(report.Broken) != 1 || report.Broken[0].Target != "missing" {
		t.Errorf("broken = %+v, want one entry for missing", report.Broken)
	}

	orphans, err := svc.Orphans(ctx, false)
	if err != nil {
		t.Fatalf("Orphans: %v", err)
	}
	if len(orphans) != 1 || orphans[0] != "c.md" {
		t.Errorf("orphans = %v, want [c.md]", orphans)
	}

	export, err := svc.ExportGraph(ctx, 0)
	if err != nil {
		t.Fatalf("ExportGraph: %v", err)
	}
	if len(export.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(export.Nodes))
	}
}

func TestSearch_FallbackScan(t *testing.T) {
	svc, _ := testService(t, map[string]string{
		"a.md": "nothing here\n",
		"b.md": "the golden needle sits here\n",
	})
	results, err := svc.Search(context.Background(), "golden needle", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "b.md" {
		t.Fatalf("results = %+v, want only b.md", results)
	}
	if !strings.Contains(results[0].Snippet, "golden needle") {
		t.Errorf("snippet = %q, want match context", results[0].Snippet)
	}
}

func TestSummarize(t *testing.T) {
	svc, _ := testService(t, map[string]string{
		"a.md": "---\ntitle: A\n---\n\n# Heading\n\nSome plain words with a [[link|shown]] inside.\n",
	})
	sum, err := svc.Summarize(context.Background(), "a.md", 200)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if strings.Contains(sum, "[[") || strings.Contains(sum, "title:") {
		t.Errorf("summary not cleaned: %q", sum)
	}
	if !strings.Contains(sum, "shown") {
		t.Errorf("summary should keep link display text: %q", sum)
	}
}
