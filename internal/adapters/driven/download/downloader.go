// Package download provides the streaming HTTP downloader.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Ensure Downloader implements the interface.
var _ driven.Downloader = (*Downloader)(nil)

// Default configuration values.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultChunkSize = 64 * 1024
	DefaultRPS       = 4
)

// Config holds configuration for the downloader.
type Config struct {
	// StagingDir is where downloads land.
	StagingDir string

	// Timeout bounds each request (default: 60s).
	Timeout time.Duration

	// ChunkSize is the copy buffer size in bytes (default: 64 KiB).
	ChunkSize int

	// RPS limits requests per second (default: 4).
	RPS int
}

// Downloader fetches URLs into the staging area with bounded-chunk
// streaming and client-side rate limiting.
type Downloader struct {
	client     *http.Client
	limiter    *rate.Limiter
	stagingDir string
	chunkSize  int
}

// New creates a downloader.
func New(cfg Config) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRPS
	}

	return &Downloader{
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
		stagingDir: cfg.StagingDir,
		chunkSize:  cfg.ChunkSize,
	}
}

// Download fetches a single URL into a fresh staging subdirectory and
// returns the local path. Each download gets its own uuid-named
// directory so URL basenames can never collide in staging.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	dir := filepath.Join(d.stagingDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	dest := filepath.Join(dir, filenameFromURL(rawURL))

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	buf := make([]byte, d.chunkSize)
	if _, err := io.CopyBuffer(f, resp.Body, buf); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("stream %s: %w", rawURL, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}

	return dest, nil
}

// DownloadBatch fetches URLs sequentially, yielding each local path as
// it completes. Failures are logged and omitted from the sequence.
func (d *Downloader) DownloadBatch(ctx context.Context, urls []string) <-chan string {
	paths := make(chan string)

	go func() {
		defer close(paths)
		for _, u := range urls {
			p, err := d.Download(ctx, u)
			if err != nil {
				logger.Warn("Failed to download %s: %v", u, err)
				continue
			}
			select {
			case <-ctx.Done():
				return
			case paths <- p:
			}
		}
	}()

	return paths
}

// filenameFromURL derives a filename from the URL path, falling back
// to "download" for bare hosts.
func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "download"
	}
	return name
}
