// Package config loads the librarian configuration. The configuration
// is read once at process start and passed by reference to every
// component constructor; there is no process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults applied when the config file omits a value.
const (
	DefaultBatchSize           = 10
	DefaultChunkSize           = 64 * 1024
	DefaultMaxEmbedChars       = 5000
	DefaultEmbeddingDimensions = 384
	DefaultDownloadTimeout     = 60 * time.Second
	DefaultDownloadRPS         = 4
)

// Config holds every tunable the librarian needs.
type Config struct {
	// Paths groups on-disk locations.
	Paths PathsConfig `toml:"paths"`

	// Ingest groups pipeline tunables.
	Ingest IngestConfig `toml:"ingest"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Backup configures backup behaviour.
	Backup BackupConfig `toml:"backup"`
}

// PathsConfig locates the data directories. All are created on Load.
type PathsConfig struct {
	// DataDir is the root for databases (metadata.db, vectors.db).
	DataDir string `toml:"data_dir"`

	// StagingDir holds transient downloads and extracted archives.
	StagingDir string `toml:"staging_dir"`

	// LibraryDir is the content-addressed file library.
	LibraryDir string `toml:"library_dir"`

	// BackupDir is the root for timestamped backups.
	BackupDir string `toml:"backup_dir"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// BatchSize is the number of files processed inside an archive
	// between resource-release checkpoints.
	BatchSize int `toml:"batch_size"`

	// ChunkSize is the buffer size in bytes for all streaming I/O
	// (downloads, extraction, checksum hashing, text reads).
	ChunkSize int `toml:"chunk_size"`

	// MaxEmbedChars caps how much extracted text is fed to the
	// embedding provider. Longer documents are truncated.
	MaxEmbedChars int `toml:"max_embed_chars"`

	// DownloadTimeout bounds each HTTP download.
	DownloadTimeout time.Duration `toml:"download_timeout"`

	// DownloadRPS limits download requests per second.
	DownloadRPS int `toml:"download_rps"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// BaseURL is the provider API base URL.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions is the embedding vector size. The vector store is
	// opened with this value; changing it without migrating existing
	// vectors fails loudly.
	Dimensions int `toml:"dimensions"`
}

// BackupConfig configures backups.
type BackupConfig struct {
	// Enabled gates the backup command.
	Enabled bool `toml:"enabled"`
}

// MetadataDBPath returns the metadata database location.
func (c *Config) MetadataDBPath() string {
	return filepath.Join(c.Paths.DataDir, "metadata.db")
}

// VectorDBPath returns the vector database location.
func (c *Config) VectorDBPath() string {
	return filepath.Join(c.Paths.DataDir, "vectors.db")
}

// DownloadDir returns the staging area for downloads.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.Paths.StagingDir, "downloads")
}

// ExtractDir returns the staging area for archive extraction.
func (c *Config) ExtractDir() string {
	return filepath.Join(c.Paths.StagingDir, "extracted")
}

// Load reads the TOML config file at path, applies defaults, and
// creates the configured directories. If path is empty, defaults to
// ~/.librarian/config.toml; a missing file yields the default config.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".librarian", "config.toml")
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file - run entirely on defaults.
	default:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	if err := cfg.ensureDirs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills zero values. baseDir anchors relative defaults.
func (c *Config) applyDefaults(baseDir string) {
	if c.Paths.DataDir == "" {
		c.Paths.DataDir = filepath.Join(baseDir, "data")
	}
	if c.Paths.StagingDir == "" {
		c.Paths.StagingDir = filepath.Join(baseDir, "staging")
	}
	if c.Paths.LibraryDir == "" {
		c.Paths.LibraryDir = filepath.Join(baseDir, "library")
	}
	if c.Paths.BackupDir == "" {
		c.Paths.BackupDir = filepath.Join(baseDir, "backups")
	}
	if c.Ingest.BatchSize <= 0 {
		c.Ingest.BatchSize = DefaultBatchSize
	}
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = DefaultChunkSize
	}
	if c.Ingest.MaxEmbedChars <= 0 {
		c.Ingest.MaxEmbedChars = DefaultMaxEmbedChars
	}
	if c.Ingest.DownloadTimeout <= 0 {
		c.Ingest.DownloadTimeout = DefaultDownloadTimeout
	}
	if c.Ingest.DownloadRPS <= 0 {
		c.Ingest.DownloadRPS = DefaultDownloadRPS
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = DefaultEmbeddingDimensions
	}
}

// ensureDirs creates every configured directory, including the library
// type buckets.
func (c *Config) ensureDirs() error {
	dirs := []string{
		c.Paths.DataDir,
		c.DownloadDir(),
		c.ExtractDir(),
		filepath.Join(c.Paths.LibraryDir, "text"),
		filepath.Join(c.Paths.LibraryDir, "images"),
		filepath.Join(c.Paths.LibraryDir, "pdfs"),
		c.Paths.BackupDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
