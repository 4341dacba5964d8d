// Package zip extracts zip archives one entry at a time so that large
// archives never fully occupy memory.
package zip

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// DefaultChunkSize is the copy buffer size for entry extraction.
const DefaultChunkSize = 64 * 1024

// Extractor expands zip archives entry by entry.
type Extractor struct {
	chunkSize int
}

// New creates a zip extractor. chunkSize bounds the copy buffer; zero
// means DefaultChunkSize.
func New(chunkSize int) *Extractor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Extractor{chunkSize: chunkSize}
}

// IsArchive reports whether the file is a zip archive. The extension
// is checked first, then the PK magic bytes.
func (e *Extractor) IsArchive(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}

	// PK\x03\x04 is a normal zip, PK\x05\x06 an empty one.
	if header[0] != 'P' || header[1] != 'K' {
		return false
	}
	return (header[2] == 0x03 && header[3] == 0x04) ||
		(header[2] == 0x05 && header[3] == 0x06)
}

// Extract expands the archive into dest, yielding each extracted path.
// Entries are written in bounded chunks. Both channels are closed and
// the archive handle released on every exit path, including early
// cancellation via ctx.
func (e *Extractor) Extract(ctx context.Context, path, dest string) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		if err := e.extractAll(ctx, path, dest, paths); err != nil {
			errs <- err
		}
	}()

	return paths, errs
}

func (e *Extractor) extractAll(ctx context.Context, path, dest string, paths chan<- string) error {
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", filepath.Base(path), err)
	}
	defer r.Close()

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		extracted, err := e.extractEntry(entry, dest)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case paths <- extracted:
		}
	}

	return nil
}

// extractEntry writes a single archive entry under dest and returns
// its path. Entry names are sanitised so an untrusted archive cannot
// escape the extraction root.
func (e *Extractor) extractEntry(entry *zip.File, dest string) (string, error) {
	name := filepath.Clean(entry.Name)
	if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(name) {
		return "", fmt.Errorf("archive entry %q escapes extraction root", entry.Name)
	}

	target := filepath.Join(dest, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return "", fmt.Errorf("create entry directory: %w", err)
	}

	src, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}

	buf := make([]byte, e.chunkSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		dst.Close()
		os.Remove(target)
		return "", fmt.Errorf("extract entry %s: %w", entry.Name, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}

	return target, nil
}
