package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/ai/mock"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, provider ai.Provider, opts ...Option) (*Pipeline, storage.PassageRepository, storage.LexicalIndexRepository, func()) {
	t.Helper()

	passageRepo, lexicalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	opts = append([]Option{WithChunkWindow(50, 5)}, opts...)
	pipeline, err := NewPipeline(passageRepo, lexicalRepo, provider, opts...)
	require.NoError(t, err)

	cleanup := func() {
		pipeline.Release()
		lexicalRepo.Close()
		passageRepo.Close()
		backend.Close()
	}
	return pipeline, passageRepo, lexicalRepo, cleanup
}

func testSections() []*core.Section {
	return []*core.Section{
		{
			File:        "manual.md",
			HeadingPath: []string{"Setup", "Install"},
			Text:        "download the release archive and unpack it",
		},
		{
			File:        "manual.md",
			HeadingPath: []string{"Setup", "Configure"},
			Text:        "edit the configuration file before the first run",
		},
		{
			File:        "recipes.md",
			HeadingPath: []string{"Bread"},
			Text:        "knead the dough and let it rest",
		},
	}
}

func TestNewPipeline(t *testing.T) {
	passageRepo, lexicalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		lexicalRepo.Close()
		passageRepo.Close()
		backend.Close()
	}()

	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		pipeline, err := NewPipeline(passageRepo, lexicalRepo, provider, WithPoolSize(2))
		require.NoError(t, err)
		defer pipeline.Release()
		assert.NotNil(t, pipeline)
	})

	t.Run("nil passage repository", func(t *testing.T) {
		_, err := NewPipeline(nil, lexicalRepo, provider)
		assert.Equal(t, ErrPassageRepositoryRequired, err)
	})

	t.Run("nil lexical repository", func(t *testing.T) {
		_, err := NewPipeline(passageRepo, nil, provider)
		assert.Equal(t, ErrLexicalRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(passageRepo, lexicalRepo, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestIndexSections(t *testing.T) {
	pipeline, passageRepo, lexicalRepo, cleanup := newTestPipeline(t, mock.NewMockProvider())
	defer cleanup()

	ctx := context.Background()
	count, err := pipeline.IndexSections(ctx, testSections())
	require.NoError(t, err)
	assert.Equal(t, 3, count, "each short section becomes one passage")

	stored, err := passageRepo.GetPassagesByFile(ctx, "manual.md")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, passage := range stored {
		assert.Equal(t, "manual.md", passage.File)
		assert.NotEmpty(t, passage.Vector, "mock embedder fills vectors")
		assert.Positive(t, passage.TokenCount)
	}

	// Term postings are written for every passage.
	posted := make(map[core.ID]bool)
	err = lexicalRepo.IteratePostings(ctx, func(term string, posting core.Posting) error {
		posted[posting.PassageId] = true
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, posted, 3)
}

func TestIndexSections_EmbedderFailureStaysLexical(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, _ []string) ([][]float32, error) {
		return nil, errors.New("embedder offline")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockScorer())

	pipeline, passageRepo, _, cleanup := newTestPipeline(t, provider)
	defer cleanup()

	ctx := context.Background()
	count, err := pipeline.IndexSections(ctx, testSections())
	require.NoError(t, err, "embedding failure never fails indexing")
	assert.Equal(t, 3, count)

	stored, err := passageRepo.GetPassagesByFile(ctx, "manual.md")
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	for _, passage := range stored {
		assert.Empty(t, passage.Vector)
	}
}

func TestIndexSections_Empty(t *testing.T) {
	pipeline, _, _, cleanup := newTestPipeline(t, mock.NewMockProvider())
	defer cleanup()

	count, err := pipeline.IndexSections(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteFile(t *testing.T) {
	pipeline, passageRepo, lexicalRepo, cleanup := newTestPipeline(t, mock.NewMockProvider())
	defer cleanup()

	ctx := context.Background()
	_, err := pipeline.IndexSections(ctx, testSections())
	require.NoError(t, err)

	deleted, err := pipeline.DeleteFile(ctx, "manual.md")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	stored, err := passageRepo.GetPassagesByFile(ctx, "manual.md")
	require.NoError(t, err)
	assert.Empty(t, stored)

	// The other file's passages and postings survive.
	remaining, err := passageRepo.GetPassagesByFile(ctx, "recipes.md")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	posted := make(map[core.ID]bool)
	err = lexicalRepo.IteratePostings(ctx, func(term string, posting core.Posting) error {
		posted[posting.PassageId] = true
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, posted, 1, "deleted passages leave no postings behind")
}

func TestDeleteFile_NotIndexed(t *testing.T) {
	pipeline, _, _, cleanup := newTestPipeline(t, mock.NewMockProvider())
	defer cleanup()

	deleted, err := pipeline.DeleteFile(context.Background(), "never-indexed.md")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
