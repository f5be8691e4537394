package index

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mimir-notes/mimir/internal/vault"
)

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatch_IndexesCreatedAndDeletedFiles(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	acc, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan string, 16)
	go func() {
		_ = Watch(ctx, db, acc, dir, logger, func(kind, path string) {
			events <- kind + ":" + path
		})
	}()

	// Give the watcher a moment to register the root.
	time.Sleep(100 * time.Millisecond)

	if err := acc.Write(ctx, "note.md", []byte("# Watched\n")); err != nil {
		t.Fatal(err)
	}
	ok := waitFor(t, 3*time.Second, func() bool {
		cs, _ := db.GetChecksum("note.md")
		return cs != ""
	})
	if !ok {
		t.Fatal("note.md was not indexed after create")
	}

	if err := acc.Delete(ctx, "note.md"); err != nil {
		t.Fatal(err)
	}
	ok = waitFor(t, 3*time.Second, func() bool {
		cs, _ := db.GetChecksum("note.md")
		return cs == ""
	})
	if !ok {
		t.Fatal("note.md was not removed from the index after delete")
	}
}

func TestWatch_StopsOnContextCancel(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	acc, err := vault.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, db, acc, dir, logger, nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
