package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/custodia-labs/librarian/internal/core/domain"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Ensure Coordinator implements the driving port.
var _ driving.Coordinator = (*Coordinator)(nil)

// CoordinatorConfig holds the pipeline tunables the coordinator needs.
type CoordinatorConfig struct {
	// LibraryDir is the root of the content-addressed library.
	LibraryDir string

	// DownloadDir is the staging area for downloads.
	DownloadDir string

	// ExtractDir is the staging area for archive extraction.
	ExtractDir string

	// BatchSize is the number of stored files between resource-release
	// checkpoints inside an archive.
	BatchSize int

	// ChunkSize is the streaming buffer size in bytes.
	ChunkSize int

	// MaxEmbedChars caps the text fed to the embedding provider.
	MaxEmbedChars int
}

// Coordinator runs the ingestion pipeline: download, extract, classify,
// deduplicate, store, process, embed. It is strictly sequential; all
// state lives in the stores, not in the coordinator.
type Coordinator struct {
	cfg        CoordinatorConfig
	files      driven.FileStore
	vectors    driven.VectorIndex
	downloader driven.Downloader
	extractor  driven.Extractor
	classifier driven.Classifier
	processors []driven.Processor
	embedder   driven.EmbeddingService
}

// NewCoordinator creates an ingestion coordinator. The embedder may be
// nil, in which case files are stored and indexed for exact search only.
func NewCoordinator(
	cfg CoordinatorConfig,
	files driven.FileStore,
	vectors driven.VectorIndex,
	downloader driven.Downloader,
	extractor driven.Extractor,
	classifier driven.Classifier,
	processors []driven.Processor,
	embedder driven.EmbeddingService,
) *Coordinator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Coordinator{
		cfg:        cfg,
		files:      files,
		vectors:    vectors,
		downloader: downloader,
		extractor:  extractor,
		classifier: classifier,
		processors: processors,
		embedder:   embedder,
	}
}

// fileOutcome classifies what happened to a single candidate file.
// Skips (duplicates, unknown types) are expected outcomes, not errors.
type fileOutcome int

const (
	fileStored fileOutcome = iota
	fileSkipped
	fileFailed
)

// Ingest processes each URL independently and returns the number of
// files newly stored across the whole run. A URL is marked completed
// when its download and extraction succeeded, even if every inner file
// failed processing; per-file failures are logged, not raised. One
// URL's failure never stops the rest of the batch.
func (c *Coordinator) Ingest(ctx context.Context, urls []string, cleanupAfter bool) (int, error) {
	total := 0

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		state, err := c.files.GetState(ctx, url)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return total, fmt.Errorf("reading state for %s: %w", url, err)
		}
		if state != nil && state.State == domain.StateCompleted {
			logger.Info("Skipping %s: already completed", url)
			continue
		}

		// The processing marker must be durable before any side effect
		// so a crash leaves an honest record.
		if err := c.files.SetState(ctx, url, domain.StateProcessing); err != nil {
			return total, fmt.Errorf("marking %s processing: %w", url, err)
		}

		stored, urlErr := c.processURL(ctx, url)
		total += stored

		final := domain.StateCompleted
		if urlErr != nil {
			logger.Error("Processing %s failed: %v", url, urlErr)
			final = domain.StateFailed
		}
		if err := c.files.SetState(ctx, url, final); err != nil {
			logger.Error("Recording final state for %s: %v", url, err)
		}
	}

	if cleanupAfter {
		c.cleanupStaging()
	}
	releaseResources()

	return total, nil
}

// processURL downloads one URL and stores everything behind it. The
// returned count is files newly stored; the returned error marks the
// whole URL failed.
func (c *Coordinator) processURL(ctx context.Context, url string) (int, error) {
	path, err := c.downloader.Download(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}

	if c.extractor.IsArchive(path) {
		return c.processArchive(ctx, path, url)
	}

	outcome, err := c.processFile(ctx, path, url)
	if err != nil {
		return 0, err
	}
	if outcome == fileStored {
		return 1, nil
	}
	return 0, nil
}

// processArchive extracts the archive lazily and feeds each file
// through the pipeline. The archive itself is never retained. Resource
// checkpoints run every BatchSize stored files so large archives keep a
// bounded footprint.
func (c *Coordinator) processArchive(ctx context.Context, archivePath, url string) (int, error) {
	// Cancelling extractCtx lets us stop early on a storage error
	// without leaking the extraction goroutine.
	extractCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	dest := filepath.Join(c.cfg.ExtractDir, archiveStem(archivePath))
	paths, errs := c.extractor.Extract(extractCtx, archivePath, dest)

	stored := 0
	for p := range paths {
		outcome, err := c.processFile(ctx, p, url)
		if err != nil {
			return stored, err
		}
		if outcome == fileStored {
			stored++
			if stored%c.cfg.BatchSize == 0 {
				releaseResources()
			}
		}
	}

	if err := <-errs; err != nil {
		return stored, fmt.Errorf("extract: %w", err)
	}

	if err := os.Remove(archivePath); err != nil {
		logger.Warn("Removing archive %s: %v", archivePath, err)
	}

	return stored, nil
}

// processFile runs one candidate file through checksum, dedup,
// classification, library storage, content processing, and embedding.
// A non-nil error means the metadata store itself failed and the whole
// URL must be marked failed; everything else degrades to a logged skip.
func (c *Coordinator) processFile(ctx context.Context, path, url string) (fileOutcome, error) {
	checksum, err := ChecksumFile(path, c.cfg.ChunkSize)
	if err != nil {
		logger.Warn("Checksumming %s: %v", path, err)
		return fileFailed, nil
	}

	exists, err := c.files.FileExists(ctx, checksum)
	if err != nil {
		return fileFailed, fmt.Errorf("checking duplicate: %w", err)
	}
	if exists {
		logger.Info("Skipping %s: duplicate content", filepath.Base(path))
		return fileSkipped, nil
	}

	fileType := c.classifier.Classify(path)
	if fileType == domain.FileTypeUnknown {
		logger.Warn("Skipping %s: unrecognised file type", filepath.Base(path))
		return fileSkipped, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		logger.Warn("Stat %s: %v", path, err)
		return fileFailed, nil
	}

	libraryPath := filepath.Join(fileType.LibraryBucket(), checksum+strings.ToLower(filepath.Ext(path)))
	if err := c.copyToLibrary(path, libraryPath); err != nil {
		logger.Warn("Storing %s in library: %v", filepath.Base(path), err)
		return fileFailed, nil
	}

	rec := &domain.FileRecord{
		OriginalURL: url,
		Checksum:    checksum,
		Type:        fileType,
		Size:        info.Size(),
		LibraryPath: libraryPath,
		CreatedAt:   time.Now().UTC(),
	}

	fileID, err := c.files.InsertFile(ctx, rec)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			logger.Info("Skipping %s: duplicate content", filepath.Base(path))
			return fileSkipped, nil
		}
		return fileFailed, fmt.Errorf("inserting file record: %w", err)
	}

	processor := c.processorFor(fileType)
	if processor == nil {
		logger.Warn("No processor for %s files, stored %s without content", fileType, filepath.Base(path))
		return fileSkipped, nil
	}

	content, err := processor.Process(ctx, path)
	if err != nil {
		logger.Warn("Processing %s: %v", filepath.Base(path), err)
		return fileFailed, nil
	}
	content.FileID = fileID

	if err := c.files.InsertContent(ctx, content); err != nil {
		return fileFailed, fmt.Errorf("inserting content for file %d: %w", fileID, err)
	}

	c.embedFile(ctx, fileID, content)

	return fileStored, nil
}

// embedFile generates and stores the embedding for a file. Embedding is
// best-effort: a failure here leaves the file searchable by exact match
// and is logged, never raised.
func (c *Coordinator) embedFile(ctx context.Context, fileID int64, content *domain.ContentRecord) {
	if c.embedder == nil || c.vectors == nil {
		return
	}

	has, err := c.vectors.Has(ctx, fileID)
	if err != nil {
		logger.Warn("Checking embedding for file %d: %v", fileID, err)
		return
	}
	if has {
		return
	}

	text := content.EmbedText(c.cfg.MaxEmbedChars)
	if text == "" {
		return
	}

	embedding, err := c.embedder.Embed(ctx, text)
	if err != nil {
		logger.Warn("Embedding file %d: %v", fileID, err)
		return
	}

	if err := c.vectors.Add(ctx, fileID, embedding); err != nil {
		logger.Warn("Indexing embedding for file %d: %v", fileID, err)
	}
}

// processorFor returns the first processor accepting the type, or nil.
func (c *Coordinator) processorFor(t domain.FileType) driven.Processor {
	for _, p := range c.processors {
		if p.CanProcess(t) {
			return p
		}
	}
	return nil
}

// copyToLibrary streams a staged file into its content-addressed
// library location in bounded chunks.
func (c *Coordinator) copyToLibrary(src, libraryPath string) error {
	dst := filepath.Join(c.cfg.LibraryDir, libraryPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	chunkSize := c.cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChecksumChunkSize
	}
	if _, err := io.CopyBuffer(out, in, make([]byte, chunkSize)); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

// cleanupStaging wipes and recreates the transient download and
// extraction areas. The library and stores are untouched.
func (c *Coordinator) cleanupStaging() {
	for _, dir := range []string{c.cfg.DownloadDir, c.cfg.ExtractDir} {
		if dir == "" {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Cleaning staging dir %s: %v", dir, err)
			continue
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			logger.Warn("Recreating staging dir %s: %v", dir, err)
		}
	}
}

// archiveStem returns the archive filename without its extension, used
// to name its extraction directory.
func archiveStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// releaseResources returns freed memory to the OS between batches.
// Large archives of PDFs otherwise keep the peak footprint for the
// whole run.
func releaseResources() {
	debug.FreeOSMemory()
}
