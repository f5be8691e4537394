package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mimir-notes/mimir/internal/apperr"
)

// REST implements Accessor against an Obsidian Local REST API endpoint.
// Directory listings are shallow on the wire, so List recurses into
// subdirectories up to maxDepth.
type REST struct {
	base     string // e.g. https://127.0.0.1:27124
	token    string
	maxDepth int
	client   *http.Client
}

var _ Accessor = (*REST)(nil)

// RESTOption configures a REST accessor.
type RESTOption func(*REST)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(r *REST) { r.client = c }
}

// WithMaxDepth caps directory recursion during List.
func WithMaxDepth(depth int) RESTOption {
	return func(r *REST) { r.maxDepth = depth }
}

// NewREST creates a REST accessor for the given base URL and bearer token.
func NewREST(baseURL, token string, opts ...RESTOption) (*REST, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("vault: rest base url is required")
	}
	r := &REST{
		base:     strings.TrimRight(baseURL, "/"),
		token:    token,
		maxDepth: 10,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// vaultURL builds {base}/vault/{escaped path}. A trailing slash on path is
// preserved because the API distinguishes files from directories by it.
func (r *REST) vaultURL(path string) string {
	trailing := strings.HasSuffix(path, "/")
	path = strings.Trim(path, "/")
	var b strings.Builder
	b.WriteString(r.base + "/vault/")
	if path != "" {
		segs := strings.Split(path, "/")
		for i, s := range segs {
			if i > 0 {
				b.WriteByte('/')
			}
			b.WriteString(url.PathEscape(s))
		}
		if trailing {
			b.WriteByte('/')
		}
	}
	return b.String()
}

func (r *REST) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("vault: build request: %w", err)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	return req, nil
}

type listResponse struct {
	Files []string `json:"files"`
}

// List walks the remote directory tree and returns every .md file.
func (r *REST) List(ctx context.Context, dir string) ([]FileInfo, error) {
	var out []FileInfo
	if err := r.listDir(ctx, dir, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *REST) listDir(ctx context.Context, dir string, depth int, out *[]FileInfo) error {
	if depth > r.maxDepth {
		return nil
	}

	target := r.vaultURL("/")
	if dir != "" {
		target = r.vaultURL(strings.Trim(dir, "/") + "/")
	}
	req, err := r.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("vault: list %s: %w", dir, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("vault: list %s: %w", dir, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vault: list %s: unexpected status %d", dir, resp.StatusCode)
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("vault: decode listing for %s: %w", dir, err)
	}

	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}
	for _, entry := range lr.Files {
		if strings.HasSuffix(entry, "/") {
			sub := prefix + strings.TrimSuffix(entry, "/")
			if err := r.listDir(ctx, sub, depth+1, out); err != nil {
				return err
			}
			continue
		}
		if strings.HasSuffix(entry, ".md") {
			*out = append(*out, FileInfo{Path: prefix + entry})
		}
	}
	return nil
}

// Read fetches the raw content of a remote note.
func (r *REST) Read(ctx context.Context, path string) ([]byte, error) {
	req, err := r.newRequest(ctx, http.MethodGet, r.vaultURL(path), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/markdown")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("vault: read %s: %w", path, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vault: read %s: unexpected status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s body: %w", path, err)
	}
	return data, nil
}

// Write stores content at the remote path.
func (r *REST) Write(ctx context.Context, path string, content []byte) error {
	req, err := r.newRequest(ctx, http.MethodPut, r.vaultURL(path), bytes.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/markdown")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("vault: write %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("vault: write %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// Delete removes the remote note.
func (r *REST) Delete(ctx context.Context, path string) error {
	req, err := r.newRequest(ctx, http.MethodDelete, r.vaultURL(path), nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("vault: delete %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("vault: delete %s: %w", path, apperr.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("vault: delete %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// Move copies content to the new path then deletes the old one; the REST
// API has no native rename.
func (r *REST) Move(ctx context.Context, oldPath, newPath string) error {
	data, err := r.Read(ctx, oldPath)
	if err != nil {
		return err
	}
	if err := r.Write(ctx, newPath, data); err != nil {
		return err
	}
	return r.Delete(ctx, oldPath)
}
