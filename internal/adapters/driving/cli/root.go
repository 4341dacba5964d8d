// Package cli implements the librarian command-line interface.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/adapters/driven/backup"
	"github.com/custodia-labs/librarian/internal/adapters/driven/classify"
	"github.com/custodia-labs/librarian/internal/adapters/driven/download"
	"github.com/custodia-labs/librarian/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/librarian/internal/adapters/driven/extract/zip"
	imageproc "github.com/custodia-labs/librarian/internal/adapters/driven/process/image"
	pdfproc "github.com/custodia-labs/librarian/internal/adapters/driven/process/pdf"
	textproc "github.com/custodia-labs/librarian/internal/adapters/driven/process/text"
	"github.com/custodia-labs/librarian/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/librarian/internal/adapters/driven/storage/vector"
	"github.com/custodia-labs/librarian/internal/config"
	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/core/ports/driving"
	"github.com/custodia-labs/librarian/internal/core/services"
	"github.com/custodia-labs/librarian/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Package-level services, wired by setupServices before a command runs.
var (
	cfg           *config.Config
	fileStore     driven.FileStore
	vectorIndex   driven.VectorIndex
	coordinator   driving.Coordinator
	searcher      driving.Searcher
	backupService driven.BackupService
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "librarian",
	Short: "Document ingestion and hybrid search",
	Long: `Librarian downloads documents and archives, stores them in a
content-addressed library, and makes them searchable by exact text
match and semantic similarity.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setupServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		teardownServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.librarian/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the CLI. It returns the error for main to translate
// into an exit code.
func Execute() error {
	return rootCmd.Execute()
}

// setupServices loads the configuration and wires every adapter into
// the core services. Called once per invocation.
func setupServices() error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.Paths.DataDir)
	if err != nil {
		return err
	}
	fileStore = store

	vstore, err := vector.NewStore(cfg.Paths.DataDir, cfg.Embedding.Dimensions)
	if err != nil {
		store.Close()
		return err
	}
	vectorIndex = vstore

	embedder := connectEmbedder()

	downloader := download.New(download.Config{
		StagingDir: cfg.DownloadDir(),
		Timeout:    cfg.Ingest.DownloadTimeout,
		RPS:        cfg.Ingest.DownloadRPS,
		ChunkSize:  cfg.Ingest.ChunkSize,
	})
	extractor := zip.New(cfg.Ingest.ChunkSize)
	classifier := classify.New()
	processors := []driven.Processor{
		textproc.New(cfg.Ingest.ChunkSize),
		imageproc.New(),
		pdfproc.New(),
	}

	coordinator = services.NewCoordinator(
		services.CoordinatorConfig{
			LibraryDir:    cfg.Paths.LibraryDir,
			DownloadDir:   cfg.DownloadDir(),
			ExtractDir:    cfg.ExtractDir(),
			BatchSize:     cfg.Ingest.BatchSize,
			ChunkSize:     cfg.Ingest.ChunkSize,
			MaxEmbedChars: cfg.Ingest.MaxEmbedChars,
		},
		fileStore, vectorIndex, downloader, extractor, classifier, processors, embedder,
	)
	searcher = services.NewRouter(fileStore, vectorIndex, embedder)
	backupService = backup.New()

	return nil
}

// connectEmbedder pings the embedding provider and returns nil when it
// is unreachable. Ingestion and exact search work without embeddings;
// semantic search reports the provider as unavailable.
func connectEmbedder() driven.EmbeddingService {
	embedder := ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := embedder.Ping(ctx); err != nil {
		logger.Warn("Embedding provider unavailable, continuing without embeddings: %v", err)
		return nil
	}
	return embedder
}

func teardownServices() {
	if vectorIndex != nil {
		if err := vectorIndex.Close(); err != nil {
			logger.Warn("Closing vector store: %v", err)
		}
	}
	if fileStore != nil {
		if err := fileStore.Close(); err != nil {
			logger.Warn("Closing metadata store: %v", err)
		}
	}
}
