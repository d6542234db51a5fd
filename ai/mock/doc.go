// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.RelevanceScorer,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage
//
//	provider := mock.NewMockProvider()
//	vector, _ := provider.Embedder().EmbedText(ctx, "some text")
//
//	// Inject custom behavior
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//		return []float32{1, 0, 0}, nil
//	}
//	provider = mock.NewMockProviderWithServices(embedder, mock.NewMockScorer())
package mock
