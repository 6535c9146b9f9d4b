package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAPIBase     = "https://api.github.com"
	defaultRawBase     = "https://raw.githubusercontent.com"
	defaultBranch      = "main"
	defaultHTTPTimeout = 90 * time.Second
	fileSeparator      = "\n\n---\n\n"
	maxParallelFiles   = 4
)

// Fetcher assembles the grounding text of a repository: its README, every
// notebook and the text of every PDF, in tree order.
type Fetcher struct {
	APIBase  string
	RawBase  string
	Branch   string
	Token    string
	CacheDir string
	Client   *http.Client
	Logger   *slog.Logger

	cache *fileCache
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// NewFetcher returns a fetcher with defaults filled in.
func NewFetcher(token string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{Token: token, Client: client, Logger: logger}
}

func (f *Fetcher) apiBase() string {
	return strings.TrimRight(firstNonEmpty(f.APIBase, defaultAPIBase), "/")
}

func (f *Fetcher) rawBase() string {
	return strings.TrimRight(firstNonEmpty(f.RawBase, defaultRawBase), "/")
}

func (f *Fetcher) branch() string {
	return firstNonEmpty(f.Branch, defaultBranch)
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return f.Logger
}

// Fetch returns the concatenated grounding text for locator.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (string, error) {
	loc, err := ParseURL(locator)
	if err != nil {
		return "", err
	}
	if f.Client == nil {
		f.Client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if f.cache == nil {
		cache, err := newFileCache(f.CacheDir, f.Client, f.authHeader())
		if err != nil {
			return "", fmt.Errorf("%w: cache: %w", ErrFetch, err)
		}
		f.cache = cache
	}

	tree, err := f.listTree(ctx, loc)
	if err != nil {
		return "", err
	}
	files := selectFiles(tree)
	f.logger().Info("fetching repository", "repo", loc.String(), "branch", f.branch(), "files", len(files))

	contents := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFiles)
	for i, file := range files {
		g.Go(func() error {
			text, err := f.fetchFile(gctx, loc, file.Path)
			if err != nil {
				return err
			}
			contents[i] = fmt.Sprintf("File: %s\n\n%s", file.Path, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(contents, fileSeparator), nil
}

// selectFiles keeps the README and every notebook and PDF blob, README first.
func selectFiles(tree []treeEntry) []treeEntry {
	readme, hasReadme := lo.Find(tree, func(entry treeEntry) bool {
		return strings.EqualFold(entry.Path, "readme.md")
	})
	docs := lo.Filter(tree, func(entry treeEntry, _ int) bool {
		if entry.Type != "blob" {
			return false
		}
		switch strings.ToLower(path.Ext(entry.Path)) {
		case ".ipynb", ".pdf":
			return true
		}
		return false
	})
	if hasReadme {
		return append([]treeEntry{readme}, docs...)
	}
	return docs
}

func (f *Fetcher) listTree(ctx context.Context, loc Locator) ([]treeEntry, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		f.apiBase(), url.PathEscape(loc.Owner), url.PathEscape(loc.Repo), url.PathEscape(f.branch()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	for key, values := range f.authHeader() {
		req.Header[key] = values
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: repository tree: %w", ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: repository tree: %s (%s)", ErrFetch, resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode repository tree: %w", ErrFetch, err)
	}
	if parsed.Truncated {
		f.logger().Warn("repository tree truncated", "repo", loc.String())
	}
	return parsed.Tree, nil
}

func (f *Fetcher) fetchFile(ctx context.Context, loc Locator, filePath string) (string, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", f.rawBase(), loc.Owner, loc.Repo, f.branch(), escapePath(filePath))
	local, err := f.cache.Fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, filePath, err)
	}
	if strings.EqualFold(path.Ext(filePath), ".pdf") {
		text, err := extractPDFText(local)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrFetch, filePath, err)
		}
		return text, nil
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, filePath, err)
	}
	return string(data), nil
}

func (f *Fetcher) authHeader() http.Header {
	header := http.Header{}
	if token := strings.TrimSpace(f.Token); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return header
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
