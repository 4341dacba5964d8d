// Command librarian ingests documents into a content-addressed library
// and serves exact and semantic search over them.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/librarian/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
