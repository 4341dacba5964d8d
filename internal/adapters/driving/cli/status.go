package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show library statistics",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if fileStore == nil {
		return errors.New("metadata store not configured")
	}

	count, err := fileStore.CountFiles(context.Background())
	if err != nil {
		return fmt.Errorf("counting files: %w", err)
	}

	cmd.Printf("Files stored : %d\n", count)
	cmd.Printf("Library      : %s\n", cfg.Paths.LibraryDir)
	cmd.Printf("Metadata DB  : %s\n", cfg.MetadataDBPath())
	cmd.Printf("Vector DB    : %s\n", cfg.VectorDBPath())
	return nil
}
