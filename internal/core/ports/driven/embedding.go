package driven

import "context"

// EmbeddingService generates vector embeddings from text. It is the
// sole coupling point to any model runtime and should be treated as a
// remote, heavyweight call.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible inference servers
type EmbeddingService interface {
	// Embed generates a fixed-dimension vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. More
	// efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768).
	// This must match the vector store's configured dimension.
	Dimensions() int

	// Ping validates the provider is reachable. Used at startup so a
	// missing model backend fails fast before any URL is processed.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
