package repo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"
)

const (
	cacheEnvVar = "PAPERDRAFT_CACHE_DIR"
	cacheSubdir = "paperdraft/files"
	cacheTTL    = 6 * time.Hour
	metaSuffix  = ".meta"
	tmpSuffix   = ".tmp"
)

// fileCache keeps raw file downloads on disk and revalidates them with
// ETag / Last-Modified once they are older than cacheTTL.
type fileCache struct {
	dir    string
	client *http.Client
	header http.Header
}

type fileMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

func defaultCacheDir() string {
	if dir := os.Getenv(cacheEnvVar); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "paperdraft-cache")
	}
	return filepath.Join(base, cacheSubdir)
}

func newFileCache(dir string, client *http.Client, header http.Header) (*fileCache, error) {
	if dir == "" {
		dir = defaultCacheDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileCache{dir: dir, client: client, header: header}, nil
}

// Fetch returns the local path of rawURL, downloading it when missing or stale.
// A stale copy is served when revalidation fails.
func (c *fileCache) Fetch(ctx context.Context, rawURL string) (string, error) {
	dataPath, metaPath := c.pathsFor(rawURL)

	info, statErr := os.Stat(dataPath)
	if statErr == nil && time.Since(info.ModTime()) < cacheTTL {
		return dataPath, nil
	}

	meta, _ := readMeta(metaPath)
	err := c.download(ctx, rawURL, dataPath, metaPath, meta, statErr == nil)
	if err == nil {
		return dataPath, nil
	}
	if statErr == nil && ctx.Err() == nil {
		return dataPath, nil
	}
	return "", err
}

func (c *fileCache) download(ctx context.Context, rawURL, dataPath, metaPath string, meta fileMeta, haveCopy bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for key, values := range c.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if haveCopy {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && haveCopy:
		now := time.Now()
		meta.CachedAt = now.UTC()
		os.Chtimes(dataPath, now, now)
		return writeMeta(metaPath, meta)
	case resp.StatusCode == http.StatusOK:
		return c.save(resp, dataPath, metaPath)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("download %s: %s (%s)", rawURL, resp.Status, string(body))
	}
}

func (c *fileCache) save(resp *http.Response, dataPath, metaPath string) error {
	tmpPath := dataPath + tmpSuffix
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	size, err := io.Copy(file, resp.Body)
	if err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, dataPath); err != nil {
		return err
	}
	return writeMeta(metaPath, fileMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
		Size:         size,
	})
}

func (c *fileCache) pathsFor(rawURL string) (string, string) {
	sum := sha1.Sum([]byte(rawURL))
	key := hex.EncodeToString(sum[:]) + path.Ext(rawURL)
	return filepath.Join(c.dir, key), filepath.Join(c.dir, key+metaSuffix)
}

func readMeta(path string) (fileMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileMeta{}, err
	}
	var meta fileMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fileMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta fileMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
