// Package graph analyzes the vault link structure: backlinks, broken
// links, orphan notes, and graph exports.
//
// Nothing is cached between calls. Every analysis starts from a fresh
// Snapshot so the result always reflects the vault state at fetch time;
// staleness risk is traded for simplicity.
package graph

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mimir-notes/mimir/internal/vault"
)

// Default collection bounds. They keep a vault-wide scan from overwhelming
// a remote accessor; callers can override both via CollectOptions.
const (
	DefaultMaxNotes    = 300
	DefaultConcurrency = 8
)

// SnapshotNote is one (path, raw content) pair inside a Snapshot.
type SnapshotNote struct {
	Path    string
	Content string
}

// Snapshot is the ephemeral per-analysis view of the vault.
type Snapshot struct {
	Notes   []SnapshotNote
	Scanned int  // notes successfully read
	Skipped int  // notes whose read failed
	// TruncatedAt is the index at which collection stopped short of the
	// full file list, -1 when the whole list was processed.
	TruncatedAt int
	// Truncated is set when either the note cap or the context deadline
	// cut the collection short.
	Truncated bool
}

// CollectOptions bound a snapshot collection.
type CollectOptions struct {
	Dir         string // subdirectory to scan, "" for the whole vault
	MaxNotes    int    // scan cap, DefaultMaxNotes when <= 0
	Concurrency int    // parallel reads, DefaultConcurrency when <= 0
}

// Collect enumerates the vault through acc and reads note contents with
// bounded concurrency. Individual read failures are skipped and counted.
// When ctx expires mid-collection the partial snapshot collected so far is
// returned with Truncated set. Only the enumeration call itself is a hard
// failure.
func Collect(ctx context.Context, acc vault.Accessor, opts CollectOptions) (*Snapshot, error) {
	maxNotes := opts.MaxNotes
	if maxNotes <= 0 {
		maxNotes = DefaultMaxNotes
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	files, err := acc.List(ctx, opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("graph: enumerate vault: %w", err)
	}

	snap := &Snapshot{TruncatedAt: -1}
	if len(files) > maxNotes {
		files = files[:maxNotes]
		snap.TruncatedAt = maxNotes
		snap.Truncated = true
	}

	// Results land in their supplied slot so aggregation stays
	// order-independent regardless of read completion order.
	contents := make([]*string, len(files))
	deadlineHit := false

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, f := range files {
		if gCtx.Err() != nil {
			deadlineHit = true
			break
		}
		g.Go(func() error {
			if gCtx.Err() != nil {
				return nil
			}
			data, readErr := acc.Read(gCtx, f.Path)
			if readErr != nil {
				// Skip, never abort the batch.
				return nil
			}
			s := string(data)
			contents[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	if deadlineHit || ctx.Err() != nil {
		snap.Truncated = true
	}

	for i, c := range files {
		if contents[i] == nil {
			snap.Skipped++
			continue
		}
		snap.Notes = append(snap.Notes, SnapshotNote{Path: c.Path, Content: *contents[i]})
	}
	snap.Scanned = len(snap.Notes)
	return snap, nil
}

// normalizeTarget lowercases a link target and strips any #heading suffix.
func normalizeTarget(target string) string {
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	return strings.ToLower(strings.TrimSpace(target))
}

// baseName reduces a path or link target to its bare note name:
// final segment, extension stripped, lowercased.
func baseName(p string) string {
	return strings.ToLower(strings.TrimSuffix(path.Base(p), path.Ext(p)))
}

// nameForms returns the three normalized forms a note can be referenced
// by: full path, full path minus extension, bare name minus extension.
func nameForms(p string) []string {
	lower := strings.ToLower(p)
	return []string{
		lower,
		strings.TrimSuffix(lower, path.Ext(lower)),
		baseName(lower),
	}
}
