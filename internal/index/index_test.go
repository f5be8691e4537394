package index

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mimir-notes/mimir/internal/vault"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "mimir-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{Path: "a.md", Title: "A", Checksum: "cs1", Tags: []string{"x"}, UpdatedAt: time.Now()}
	if err := db.UpsertNote(row, "body text"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	cs, err := db.GetChecksum("a.md")
	if err != nil || cs != "cs1" {
		t.Errorf("checksum = %q, err = %v", cs, err)
	}

	row.Checksum = "cs2"
	if err := db.UpsertNote(row, "new body"); err != nil {
		t.Fatalf("UpsertNote update: %v", err)
	}
	cs, _ = db.GetChecksum("a.md")
	if cs != "cs2" {
		t.Errorf("checksum after update = %q", cs)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "gone.md", UpdatedAt: time.Now()}, "body")
	if err := db.DeleteNote("gone.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if cs, _ := db.GetChecksum("gone.md"); cs != "" {
		t.Errorf("expected empty checksum after delete, got %q", cs)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, "")
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "2", UpdatedAt: time.Now()}, "")

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 2 || all["a.md"] != "1" || all["b.md"] != "2" {
		t.Errorf("AllChecksums = %v", all)
	}
}

func TestListNotes_TagFilterAndSort(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "Beta", Tags: []string{"work"}, UpdatedAt: time.Now()}, "")
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Alpha", Tags: []string{"home"}, UpdatedAt: time.Now()}, "")

	rows, total, err := db.ListNotes(10, 0, "", "path")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(rows) != 2 || rows[0].Path != "a.md" {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}

	rows, total, err = db.ListNotes(10, 0, "work", "")
	if err != nil {
		t.Fatalf("ListNotes tag filter: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "b.md" {
		t.Errorf("filtered rows = %+v, total = %d", rows, total)
	}
	if len(rows[0].Tags) != 1 || rows[0].Tags[0] != "work" {
		t.Errorf("tags round trip = %v", rows[0].Tags)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "Gardening", UpdatedAt: time.Now()}, "notes about tomatoes")
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "Cooking", UpdatedAt: time.Now()}, "pasta recipes")

	hits, err := db.Search("tomatoes", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "a.md" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	acc, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	_ = acc.Write(ctx, "one.md", []byte("---\ntitle: One\n---\nBody with [[two]]\n"))
	_ = acc.Write(ctx, "two.md", []byte("# Two\n"))

	if err := Sync(ctx, db, acc, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	all, _ := db.AllChecksums()
	if len(all) != 2 {
		t.Fatalf("indexed = %v, want 2 entries", all)
	}

	// Removing a file and re-syncing drops the stale row.
	_ = acc.Delete(ctx, "two.md")
	if err := Sync(ctx, db, acc, logger); err != nil {
		t.Fatalf("Sync after delete: %v", err)
	}
	all, _ = db.AllChecksums()
	if len(all) != 1 {
		t.Errorf("after delete = %v, want 1 entry", all)
	}

	rows, _, _ := db.ListNotes(10, 0, "", "path")
	if len(rows) != 1 || rows[0].Title != "One" {
		t.Errorf("rows = %+v", rows)
	}
}
