package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/librarian/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the library",
	Long: `Searches ingested documents. Quoted phrases and queries mentioning
"contains" or "phrase" run an exact text match; everything else is
ranked by semantic similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searcher == nil {
		return errors.New("search service not configured")
	}

	results, err := searcher.Search(context.Background(), args[0], searchLimit)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return errors.New("semantic search needs the embedding provider; start it or use a quoted phrase")
		}
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s %s (%.2f)\n", i+1, scoreToStars(r.Score), r.LibraryPath, r.Score)
		if r.Description != "" {
			cmd.Printf("      %s\n", r.Description)
		}
		cmd.Println()
	}
	return nil
}

// scoreToStars renders a [0,1] relevance score as a five-star rating.
func scoreToStars(score float64) string {
	filled := 1
	switch {
	case score >= 0.8:
		filled = 5
	case score >= 0.6:
		filled = 4
	case score >= 0.4:
		filled = 3
	case score >= 0.2:
		filled = 2
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}
