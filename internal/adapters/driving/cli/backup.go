package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the databases",
	Long: `Copies the metadata and vector databases into a timestamped
directory under the configured backup location.`,
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [backup-dir]",
	Short: "Restore the databases from a backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	sources := []string{cfg.MetadataDBPath(), cfg.VectorDBPath()}
	dir, err := backupService.Backup(sources, cfg.Paths.BackupDir)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	cmd.Printf("Backup written to %s\n", dir)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	if backupService == nil {
		return errors.New("backup service not configured")
	}

	// The stores hold the database files open; release them before
	// overwriting.
	teardownServices()
	fileStore = nil
	vectorIndex = nil

	if err := backupService.Restore(args[0], cfg.Paths.DataDir); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	cmd.Printf("Restored databases from %s\n", args[0])
	return nil
}
