package ai

import "context"

// Embedder generates vector embeddings from text for dense similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelevanceScorer judges how well a passage answers a query, in the manner of
// a cross-encoder: the scorer sees query and passage together. Scores are in
// [0, 1] with higher meaning more relevant, and are only comparable between
// calls with the same query. The scorer is invoked once per (query, candidate)
// pair up to the caller's budget, so each call may be expensive.
// Implementations must be thread-safe for concurrent use.
type RelevanceScorer interface {
	Score(ctx context.Context, query, passage string) (float64, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and RelevanceScorer
// instances, ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// RelevanceScorer returns the pairwise relevance scoring service, or nil
	// when the provider has no scoring backend configured. Callers must treat
	// a nil scorer as "reranking unavailable", not as an error.
	RelevanceScorer() RelevanceScorer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
