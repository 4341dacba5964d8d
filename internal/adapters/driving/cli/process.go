package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	processURLFile     string
	processKeepStaging bool
)

var processCmd = &cobra.Command{
	Use:   "process [url...]",
	Short: "Download and ingest documents",
	Long: `Downloads each URL, expands archives, classifies and stores the
files in the library, and indexes their content for search.
URLs already processed successfully are skipped; failed URLs can be
resubmitted by running the command again.`,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processURLFile, "url-file", "", "file with one URL per line")
	processCmd.Flags().BoolVar(&processKeepStaging, "keep-staging", false, "keep downloaded and extracted files after the run")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if coordinator == nil {
		return errors.New("ingestion service not configured")
	}

	urls := args
	if processURLFile != "" {
		fileURLs, err := readURLFile(processURLFile)
		if err != nil {
			return err
		}
		urls = append(urls, fileURLs...)
	}
	if len(urls) == 0 {
		return errors.New("no URLs given; pass them as arguments or via --url-file")
	}

	cmd.Printf("Processing %d URL(s)...\n", len(urls))

	stored, err := coordinator.Ingest(context.Background(), urls, !processKeepStaging)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Stored %d new file(s).\n", stored)
	return nil
}

// readURLFile reads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening URL file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}
	return urls, nil
}
