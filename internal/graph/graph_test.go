package graph

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/mimir-notes/mimir/internal/vault"
)

// stubAccessor serves an in-memory vault and can inject failures.
type stubAccessor struct {
	notes    map[string]string
	order    []string
	listErr  error
	failRead map[string]bool
	delay    time.Duration
}

func (s *stubAccessor) List(_ context.Context, _ string) ([]vault.FileInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]vault.FileInfo, 0, len(s.order))
	for _, p := range s.order {
		out = append(out, vault.FileInfo{Path: p})
	}
	return out, nil
}

func (s *stubAccessor) Read(ctx context.Context, path string) ([]byte, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.failRead[path] {
		return nil, errors.New("read failed")
	}
	content, ok := s.notes[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return []byte(content), nil
}

func (s *stubAccessor) Write(context.Context, string, []byte) error { return nil }
func (s *stubAccessor) Delete(context.Context, string) error        { return nil }
func (s *stubAccessor) Move(context.Context, string, string) error  { return nil }

var _ vault.Accessor = (*stubAccessor)(nil)

func newStub(notes map[string]string, order ...string) *stubAccessor {
	return &stubAccessor{notes: notes, order: order}
}

func snapshotOf(t *testing.T, notes map[string]string, order ...string) *Snapshot {
	t.Helper()
	snap, err := Collect(context.Background(), newStub(notes, order...), CollectOptions{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return snap
}

func TestCollect_ReadsAllNotes(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"a.md": "alpha",
		"b.md": "beta",
	}, "a.md", "b.md")

	if snap.Scanned != 2 || snap.Truncated || snap.TruncatedAt != -1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Notes[0].Path != "a.md" || snap.Notes[1].Content != "beta" {
		t.Errorf("notes = %+v", snap.Notes)
	}
}

func TestCollect_SkipsFailedReads(t *testing.T) {
	stub := newStub(map[string]string{"a.md": "a", "c.md": "c"}, "a.md", "b.md", "c.md")
	stub.failRead = map[string]bool{"b.md": true}

	snap, err := Collect(context.Background(), stub, CollectOptions{})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Scanned != 2 || snap.Skipped != 1 {
		t.Errorf("scanned = %d skipped = %d, want 2 and 1", snap.Scanned, snap.Skipped)
	}
}

func TestCollect_CapTruncates(t *testing.T) {
	notes := make(map[string]string)
	var order []string
	for i := 0; i < 10; i++ {
		p := fmt.Sprintf("n%02d.md", i)
		notes[p] = "content"
		order = append(order, p)
	}

	snap, err := Collect(context.Background(), newStub(notes, order...), CollectOptions{MaxNotes: 4})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Scanned != 4 || !snap.Truncated || snap.TruncatedAt != 4 {
		t.Errorf("snapshot = %+v", snap)
	}
	// Stable supplied order survives concurrent reads.
	for i, n := range snap.Notes {
		if want := fmt.Sprintf("n%02d.md", i); n.Path != want {
			t.Errorf("note %d = %s, want %s", i, n.Path, want)
		}
	}
}

func TestCollect_AtCapBoundaryNotTruncated(t *testing.T) {
	snap, err := Collect(context.Background(),
		newStub(map[string]string{"a.md": "a", "b.md": "b"}, "a.md", "b.md"),
		CollectOptions{MaxNotes: 2})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if snap.Truncated || snap.TruncatedAt != -1 {
		t.Errorf("exactly-at-cap should not truncate: %+v", snap)
	}
}

func TestCollect_DeadlineReturnsPartial(t *testing.T) {
	notes := make(map[string]string)
	var order []string
	for i := 0; i < 50; i++ {
		p := fmt.Sprintf("n%02d.md", i)
		notes[p] = "content"
		order = append(order, p)
	}
	stub := newStub(notes, order...)
	stub.delay = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	snap, err := Collect(ctx, stub, CollectOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("deadline must not be a hard failure: %v", err)
	}
	if !snap.Truncated {
		t.Error("expected Truncated on deadline expiry")
	}
	if snap.Scanned >= 50 {
		t.Errorf("scanned = %d, expected a partial result", snap.Scanned)
	}
}

func TestCollect_ListFailureIsHard(t *testing.T) {
	stub := &stubAccessor{listErr: errors.New("vault unreachable")}
	if _, err := Collect(context.Background(), stub, CollectOptions{}); err == nil {
		t.Fatal("expected hard error when enumeration fails")
	}
}

func TestBacklinks_RecognizedForms(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"notes/Target.md": "the note itself",
		"bare.md":         "see [[Target]]",
		"ext.md":          "see [[Target.md]]",
		"pathed.md":       "see [[notes/Target]]",
		"heading.md":      "see [[Target#Intro]]",
		"unrelated.md":    "see [[Other]]",
	}, "notes/Target.md", "bare.md", "ext.md", "pathed.md", "heading.md", "unrelated.md")

	got := Backlinks("notes/Target.md", snap)
	want := []string{"bare.md", "ext.md", "pathed.md", "heading.md"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("backlinks = %v, want %v", got, want)
	}
}

func TestBacklinks_SelfReferenceExcluded(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"loop.md": "I link to [[loop]]",
	}, "loop.md")
	if got := Backlinks("loop.md", snap); len(got) != 0 {
		t.Errorf("self-reference must not count: %v", got)
	}
}

func TestBrokenLinks_ReportsUnresolved(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"A.md": "no links here",
		"B.md": "see [[C]]",
	}, "A.md", "B.md")

	report := BrokenLinks(snap)
	if report.FilesChecked != 2 {
		t.Errorf("FilesChecked = %d, want 2", report.FilesChecked)
	}
	want := []BrokenLink{{Source: "B.md", Target: "C"}}
	if !reflect.DeepEqual(report.Broken, want) {
		t.Errorf("broken = %v, want %v", report.Broken, want)
	}
}

func TestBrokenLinks_HeadingSuffixStripped(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"a.md": "see [[b#Section]] and [[missing#Part]]",
		"b.md": "target",
	}, "a.md", "b.md")

	report := BrokenLinks(snap)
	want := []BrokenLink{{Source: "a.md", Target: "missing"}}
	if !reflect.DeepEqual(report.Broken, want) {
		t.Errorf("broken = %v, want %v", report.Broken, want)
	}
}

func TestBrokenLinks_CaseInsensitiveResolution(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"Notes/Alpha.md": "see [[beta]]",
		"beta.md":        "see [[notes/alpha.md]]",
	}, "Notes/Alpha.md", "beta.md")

	if report := BrokenLinks(snap); len(report.Broken) != 0 {
		t.Errorf("broken = %v, want none", report.Broken)
	}
}

// The default orphan behavior reports notes that point outward but are
// never targeted, and hides fully isolated notes. The asymmetry is
// intentional; this test pins it.
func TestOrphans_Asymmetry(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"A.md": "links to [[B]]",
		"B.md": "",
		"C.md": "no links, no backlinks",
	}, "A.md", "B.md", "C.md")

	withoutUnlinked := Orphans(snap, false)
	if want := []string{"A.md"}; !reflect.DeepEqual(withoutUnlinked, want) {
		t.Errorf("Orphans(false) = %v, want %v", withoutUnlinked, want)
	}

	withUnlinked := Orphans(snap, true)
	if want := []string{"A.md", "C.md"}; !reflect.DeepEqual(withUnlinked, want) {
		t.Errorf("Orphans(true) = %v, want %v", withUnlinked, want)
	}
}

func TestExportGraph_CapDropsCrossBoundaryEdges(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"a.md": "see [[b]] and [[c]]",
		"b.md": "see [[a]]",
		"c.md": "outside the cap",
	}, "a.md", "b.md", "c.md")

	export := ExportGraph(snap, 2)
	if len(export.Nodes) != 2 {
		t.Fatalf("nodes = %+v, want 2", export.Nodes)
	}
	// a→c is dropped silently; a→b and b→a survive.
	want := []Edge{
		{Source: "a.md", Target: "b.md"},
		{Source: "b.md", Target: "a.md"},
	}
	if !reflect.DeepEqual(export.Edges, want) {
		t.Errorf("edges = %v, want %v", export.Edges, want)
	}
}

func TestExportGraph_DeduplicatesEdges(t *testing.T) {
	snap := snapshotOf(t, map[string]string{
		"a.md": "see [[b]] and again [[b|alias]]",
		"b.md": "",
	}, "a.md", "b.md")

	export := ExportGraph(snap, 0)
	if len(export.Edges) != 1 {
		t.Errorf("edges = %v, want a single deduplicated edge", export.Edges)
	}
}
