// Package backup copies the persistent stores to and from a local
// backup directory. Each backup run creates a timestamped directory
// with a manifest listing what was copied.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/librarian/internal/core/ports/driven"
	"github.com/custodia-labs/librarian/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.BackupService = (*Service)(nil)

// Service is a filesystem-based backup service.
type Service struct{}

// New creates a backup service.
func New() *Service {
	return &Service{}
}

// Backup copies every source path into a new timestamped directory
// under dest and writes a manifest alongside. Missing sources are
// logged and skipped; a database that has never been written is not
// an error.
func (s *Service) Backup(sources []string, dest string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	backupDir := filepath.Join(dest, "backup_"+timestamp)
	if err := os.MkdirAll(backupDir, 0o700); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	for _, src := range sources {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			logger.Warn("Backup source %s does not exist, skipping", src)
			continue
		}

		if err := copyFile(src, filepath.Join(backupDir, filepath.Base(src))); err != nil {
			return "", fmt.Errorf("backing up %s: %w", src, err)
		}
		logger.Info("Backed up %s", src)
	}

	if err := writeManifest(backupDir, timestamp, sources); err != nil {
		return "", err
	}

	return backupDir, nil
}

// Restore copies every regular file in backupDir (except the manifest)
// into dest.
func (s *Service) Restore(backupDir, dest string) error {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return fmt.Errorf("reading backup directory: %w", err)
	}

	if err := os.MkdirAll(dest, 0o700); err != nil {
		return fmt.Errorf("creating restore directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "manifest.txt" {
			continue
		}

		src := filepath.Join(backupDir, entry.Name())
		if err := copyFile(src, filepath.Join(dest, entry.Name())); err != nil {
			return fmt.Errorf("restoring %s: %w", entry.Name(), err)
		}
		logger.Info("Restored %s", entry.Name())
	}

	return nil
}

// writeManifest records when the backup was taken and what it holds.
func writeManifest(backupDir, timestamp string, sources []string) error {
	var sb strings.Builder
	sb.WriteString("Backup ID        : " + uuid.NewString() + "\n")
	sb.WriteString("Backup timestamp : " + timestamp + "\n")
	sb.WriteString("Source paths     :\n")
	for _, src := range sources {
		sb.WriteString("  " + src + "\n")
	}

	manifest := filepath.Join(backupDir, "manifest.txt")
	if err := os.WriteFile(manifest, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// copyFile copies src to dst, preserving nothing but content.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
