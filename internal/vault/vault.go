// Package vault defines the narrow contract for reading and writing the
// note collection, with a local file-system implementation and a client for
// the Obsidian Local REST API.
package vault

import (
	"context"
	"time"
)

// FileInfo is a single entry returned by List.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum,omitempty"` // empty when the backend cannot compute it cheaply
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Accessor is the interface for vault file operations. Paths are always
// vault-relative with forward slashes. Read and Delete report a missing
// file via apperr.ErrNotFound.
type Accessor interface {
	// List returns every .md file under dir ("" for the whole vault).
	List(ctx context.Context, dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the note at path.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write stores content at path, creating parent directories as needed.
	Write(ctx context.Context, path string, content []byte) error
	// Delete removes the note at path.
	Delete(ctx context.Context, path string) error
	// Move renames oldPath to newPath.
	Move(ctx context.Context, oldPath, newPath string) error
}
