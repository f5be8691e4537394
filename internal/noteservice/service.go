// Package noteservice coordinates the vault accessor, the search index,
// and the codec/extractor/analyzer packages behind one service consumed by
// both the MCP and HTTP surfaces.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mimir-notes/mimir/internal/apperr"
	"github.com/mimir-notes/mimir/internal/checksum"
	"github.com/mimir-notes/mimir/internal/frontmatter"
	"github.com/mimir-notes/mimir/internal/graph"
	"github.com/mimir-notes/mimir/internal/index"
	"github.com/mimir-notes/mimir/internal/markdown"
	"github.com/mimir-notes/mimir/internal/parser"
	"github.com/mimir-notes/mimir/internal/vault"
)

// AnalyzerConfig bounds vault-wide link analysis.
type AnalyzerConfig struct {
	MaxNotes    int
	Concurrency int
	Timeout     time.Duration
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string               `json:"path"`
	Title       string               `json:"title"`
	Content     string               `json:"content"`
	Checksum    string               `json:"checksum"`
	Tags        []string             `json:"tags"`
	Frontmatter *frontmatter.Mapping `json:"frontmatter,omitempty"`
	WordCount   int                  `json:"word_count"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates vault and index operations. The index is optional:
// a REST-backed vault runs without one, falling back to direct scans.
type Service struct {
	acc      vault.Accessor
	db       index.NoteIndex
	analyzer AnalyzerConfig
}

// NewService creates a new note service. db may be nil.
func NewService(acc vault.Accessor, db index.NoteIndex, analyzer AnalyzerConfig) *Service {
	return &Service{acc: acc, db: db, analyzer: analyzer}
}

// GetNote reads a note from the vault and parses it.
func (s *Service) GetNote(ctx context.Context, path string) (*NoteDetail, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(path, data), nil
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(ctx context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.acc.Read(ctx, path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.acc.Write(ctx, path, content); err != nil {
		return nil, err
	}
	s.indexFile(path, content)
	return s.buildDetail(path, content), nil
}

// UpdateNote writes updated content with optimistic concurrency: when
// ifMatch is non-empty it must equal the checksum of the current content.
func (s *Service) UpdateNote(ctx context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.acc.Write(ctx, path, content); err != nil {
		return nil, err
	}
	s.indexFile(path, content)
	return s.buildDetail(path, content), nil
}

// AppendToNote appends text to a note. With a non-empty heading the text is
// inserted at the end of that heading's section; an unmatched heading falls
// back to appending at the end of the note.
func (s *Service) AppendToNote(ctx context.Context, path, text, heading string) (*NoteDetail, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	content := string(data)

	updated, ok := insertUnderHeading(content, heading, text)
	if !ok {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		updated = content + text + "\n"
	}

	if err := s.acc.Write(ctx, path, []byte(updated)); err != nil {
		return nil, err
	}
	s.indexFile(path, []byte(updated))
	return s.buildDetail(path, []byte(updated)), nil
}

// DeleteNote removes a note from the vault and the index.
func (s *Service) DeleteNote(ctx context.Context, path string) error {
	if err := s.acc.Delete(ctx, path); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.DeleteNote(path)
	}
	return nil
}

// MoveNote renames a note, keeping the index in step.
func (s *Service) MoveNote(ctx context.Context, oldPath, newPath string) error {
	if _, err := s.acc.Read(ctx, newPath); err == nil {
		return apperr.ErrAlreadyExists
	}
	if err := s.acc.Move(ctx, oldPath, newPath); err != nil {
		return err
	}
	if s.db != nil {
		_ = s.db.DeleteNote(oldPath)
		if data, err := s.acc.Read(ctx, newPath); err == nil {
			s.indexFile(newPath, data)
		}
	}
	return nil
}

// ListNotes returns paginated notes with an optional tag filter. Without
// an index the listing is served straight from the accessor.
func (s *Service) ListNotes(ctx context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	if s.db != nil {
		rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
		if err != nil {
			return nil, 0, err
		}
		items := make([]NoteListItem, len(rows))
		for i, r := range rows {
			items[i] = NoteListItem{
				Path:      r.Path,
				Title:     r.Title,
				Checksum:  r.Checksum,
				Tags:      nonNilSlice(r.Tags),
				UpdatedAt: r.UpdatedAt,
			}
		}
		return items, total, nil
	}

	files, err := s.acc.List(ctx, "")
	if err != nil {
		return nil, 0, err
	}
	total := len(files)
	if limit <= 0 {
		limit = 50
	}
	if offset > len(files) {
		offset = len(files)
	}
	end := min(offset+limit, len(files))
	items := make([]NoteListItem, 0, end-offset)
	for _, f := range files[offset:end] {
		items = append(items, NoteListItem{
			Path:      f.Path,
			Checksum:  f.Checksum,
			Tags:      []string{},
			UpdatedAt: f.UpdatedAt,
		})
	}
	return items, total, nil
}

// Search runs full-text search via the index, or a substring scan over a
// fresh snapshot when no index is available.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if s.db != nil {
		return s.db.Search(query, limit)
	}
	if limit <= 0 {
		limit = 20
	}

	snap, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	var out []index.SearchResult
	for _, note := range snap.Notes {
		if len(out) >= limit {
			break
		}
		idx := strings.Index(strings.ToLower(note.Content), needle)
		if idx < 0 && !strings.Contains(strings.ToLower(note.Path), needle) {
			continue
		}
		snippet := ""
		if idx >= 0 {
			start := max(idx-40, 0)
			end := min(idx+len(query)+40, len(note.Content))
			snippet = "..." + strings.TrimSpace(note.Content[start:end]) + "..."
		}
		out = append(out, index.SearchResult{Path: note.Path, Snippet: snippet})
	}
	return out, nil
}

// Backlinks returns the paths of notes that link to target.
func (s *Service) Backlinks(ctx context.Context, target string) ([]string, error) {
	snap, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(graph.Backlinks(target, snap)), nil
}

// BrokenLinks reports internal links whose targets do not resolve.
func (s *Service) BrokenLinks(ctx context.Context) (*graph.BrokenLinkReport, error) {
	snap, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	report := graph.BrokenLinks(snap)
	if report.Broken == nil {
		report.Broken = []graph.BrokenLink{}
	}
	return report, nil
}

// Orphans reports notes no other note links to.
func (s *Service) Orphans(ctx context.Context, includeUnlinked bool) ([]string, error) {
	snap, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(graph.Orphans(snap, includeUnlinked)), nil
}

// ExportGraph builds the graph-visualization payload.
func (s *Service) ExportGraph(ctx context.Context, maxNotes int) (*graph.Export, error) {
	snap, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	return graph.ExportGraph(snap, maxNotes), nil
}

// GetFrontmatter returns the parsed frontmatter of a note.
func (s *Service) GetFrontmatter(ctx context.Context, path string) (*frontmatter.Mapping, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	fm, _, _ := frontmatter.Parse(string(data))
	return fm, nil
}

// SetFrontmatterField sets one frontmatter key and rewrites the note,
// preserving the body byte-for-byte.
func (s *Service) SetFrontmatterField(ctx context.Context, path, key string, value any) (*NoteDetail, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	fm, body, _ := frontmatter.Parse(string(data))
	fm.Set(key, value)
	updated := []byte(frontmatter.Stringify(fm) + body)

	if err := s.acc.Write(ctx, path, updated); err != nil {
		return nil, err
	}
	s.indexFile(path, updated)
	return s.buildDetail(path, updated), nil
}

// ModifyTags adds and/or removes frontmatter tags on a note.
func (s *Service) ModifyTags(ctx context.Context, path string, add, remove []string) (*NoteDetail, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	if len(remove) > 0 {
		content = frontmatter.RemoveTags(content, remove)
	}
	if len(add) > 0 {
		content = frontmatter.AddTags(content, add)
	}

	updated := []byte(content)
	if err := s.acc.Write(ctx, path, updated); err != nil {
		return nil, err
	}
	s.indexFile(path, updated)
	return s.buildDetail(path, updated), nil
}

// AddAliases appends frontmatter aliases to a note.
func (s *Service) AddAliases(ctx context.Context, path string, aliases []string) (*NoteDetail, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	updated := []byte(frontmatter.AddAliases(string(data), aliases))
	if err := s.acc.Write(ctx, path, updated); err != nil {
		return nil, err
	}
	s.indexFile(path, updated)
	return s.buildDetail(path, updated), nil
}

// Summarize returns a plain-text summary of a note.
func (s *Service) Summarize(ctx context.Context, path string, maxLength int) (string, error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return markdown.Summarize(string(data), maxLength), nil
}

// Section returns the body of the section under the given heading. ok is
// false when the heading does not exist.
func (s *Service) Section(ctx context.Context, path, heading string) (section string, ok bool, err error) {
	data, err := s.acc.Read(ctx, path)
	if err != nil {
		return "", false, err
	}
	section, ok = markdown.SectionUnder(string(data), heading)
	return section, ok, nil
}

// collect builds a fresh analysis snapshot under the configured bounds.
func (s *Service) collect(ctx context.Context) (*graph.Snapshot, error) {
	if s.analyzer.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analyzer.Timeout)
		defer cancel()
	}
	snap, err := graph.Collect(ctx, s.acc, graph.CollectOptions{
		MaxNotes:    s.analyzer.MaxNotes,
		Concurrency: s.analyzer.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("noteservice: %w", err)
	}
	return snap, nil
}

// indexFile best-effort refreshes the search index after a write.
func (s *Service) indexFile(path string, data []byte) {
	if s.db == nil {
		return
	}
	res := parser.Parse(data)
	_ = s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      nonNilSlice(res.Tags),
		UpdatedAt: time.Now(),
	}, res.Body)
}

// buildDetail constructs a NoteDetail from raw data without re-reading.
func (s *Service) buildDetail(path string, data []byte) *NoteDetail {
	res := parser.Parse(data)
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		WordCount:   markdown.CountWords(res.Body),
		UpdatedAt:   time.Now(),
	}
}

// insertUnderHeading inserts text at the end of the section under the
// first heading whose text matches (case-insensitive). ok is false when
// heading is empty or not found.
func insertUnderHeading(content, heading, text string) (string, bool) {
	if heading == "" {
		return "", false
	}
	matchLevel, matchLine := 0, 0
	endLine := -1
	for h := range markdown.Headings(content) {
		if matchLine == 0 {
			if strings.EqualFold(strings.TrimSpace(h.Text), strings.TrimSpace(heading)) {
				matchLevel, matchLine = h.Level, h.Line
			}
			continue
		}
		if h.Level <= matchLevel {
			endLine = h.Line
			break
		}
	}
	if matchLine == 0 {
		return "", false
	}

	lines := strings.Split(content, "\n")
	if endLine < 0 {
		endLine = len(lines) + 1
	}
	// Insert before the next same-or-higher-level heading, after trailing
	// blank lines of the section.
	at := endLine - 1
	for at > matchLine && strings.TrimSpace(lines[at-1]) == "" {
		at--
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, text)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n"), true
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
