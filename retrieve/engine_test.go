package retrieve

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/ai/mock"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCorpus is five passages across two files: a three-passage section
// about an engine and a two-passage section about cooking.
func testCorpus() []*core.Passage {
	return []*core.Passage{
		{
			Id: 1, Text: "install the engine binary", File: "alpha.md",
			HeadingPath: []string{"Setup"}, SectionId: 100, SequenceIndex: 0,
			TokenCount: 4, Vector: []float32{1, 0, 0},
		},
		{
			Id: 2, Text: "configure the engine timeout", File: "alpha.md",
			HeadingPath: []string{"Setup"}, SectionId: 100, SequenceIndex: 1,
			TokenCount: 4, Vector: []float32{0.9, 0.1, 0},
		},
		{
			Id: 3, Text: "restart the engine service", File: "alpha.md",
			HeadingPath: []string{"Setup"}, SectionId: 100, SequenceIndex: 2,
			TokenCount: 4, Vector: []float32{0, 1, 0},
		},
		{
			Id: 4, Text: "unrelated cooking recipe", File: "beta.md",
			HeadingPath: []string{"Kitchen"}, SectionId: 200, SequenceIndex: 0,
			TokenCount: 3, Vector: []float32{0, 0, 1},
		},
		{
			Id: 5, Text: "more cooking notes", File: "beta.md",
			HeadingPath: []string{"Kitchen"}, SectionId: 200, SequenceIndex: 1,
			TokenCount: 3, Vector: []float32{0, 0.2, 1},
		},
	}
}

func newTestEngine(t *testing.T, docs []*core.Passage, provider ai.Provider) (*Engine, func()) {
	t.Helper()

	passageRepo, lexicalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	cleanup := func() {
		lexicalRepo.Close()
		passageRepo.Close()
		backend.Close()
	}

	ctx := context.Background()
	if len(docs) > 0 {
		require.NoError(t, passageRepo.AddPassages(ctx, docs...))
		for _, doc := range docs {
			require.NoError(t, lexicalRepo.AddDocumentTerms(ctx, doc.Id, core.TermFrequencies(doc.Text)))
		}
	}

	engine, err := NewEngine(passageRepo, lexicalRepo, provider)
	require.NoError(t, err)
	require.NoError(t, engine.Reload(ctx))

	return engine, cleanup
}

// engineQueryProvider embeds every query as the direction of passage 2, so
// dense ranking deterministically prefers the engine section.
func engineQueryProvider() ai.Provider {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0.9, 0.1, 0}, nil
	}
	return mock.NewMockProviderWithServices(embedder, mock.NewMockScorer())
}

func windowAnchors(windows []core.ContextWindow) []core.ID {
	ids := make([]core.ID, len(windows))
	for i, window := range windows {
		ids[i] = window.AnchorId
	}
	return ids
}

func TestNewEngine(t *testing.T) {
	passageRepo, lexicalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		lexicalRepo.Close()
		passageRepo.Close()
		backend.Close()
	}()

	provider := mock.NewMockProvider()

	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(passageRepo, lexicalRepo, provider)
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("with custom logger", func(t *testing.T) {
		engine, err := NewEngine(passageRepo, lexicalRepo, provider, WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("nil passage repository", func(t *testing.T) {
		_, err := NewEngine(nil, lexicalRepo, provider)
		assert.Equal(t, ErrPassageRepositoryRequired, err)
	})

	t.Run("nil lexical repository", func(t *testing.T) {
		_, err := NewEngine(passageRepo, nil, provider)
		assert.Equal(t, ErrLexicalRepositoryRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(passageRepo, lexicalRepo, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestRetrieve_BeforeReload(t *testing.T) {
	passageRepo, lexicalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		lexicalRepo.Close()
		passageRepo.Close()
		backend.Close()
	}()

	engine, err := NewEngine(passageRepo, lexicalRepo, mock.NewMockProvider())
	require.NoError(t, err)

	_, err = engine.Retrieve(context.Background(), "anything", DefaultConfig())
	assert.ErrorIs(t, err, ErrIndexNotLoaded)
}

func TestRetrieve_InputValidation(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	cfg := DefaultConfig()
	cfg.FinalK = 0
	_, err := engine.Retrieve(context.Background(), "engine", cfg)
	assert.ErrorIs(t, err, ErrInvalidFinalK)
}

func TestRetrieve_BlankQueryReturnsEmptyResult(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockScorer())

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	for _, query := range []string{"", "   "} {
		result, err := engine.Retrieve(context.Background(), query, DefaultConfig())
		require.NoError(t, err)

		assert.Empty(t, result.Windows)
		assert.Equal(t, 0, result.Status.LexicalHits)
		assert.Equal(t, 0, result.Status.DenseHits)
		assert.Equal(t, 0, result.Status.FusedCount)
		assert.False(t, result.Status.Degraded)
	}

	// Nothing to embed, so the embedder is never consulted.
	assert.Equal(t, 0, embedder.CallCount())
}

func TestRetrieve_HybridOrdering(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	result, err := engine.Retrieve(context.Background(), "engine timeout", DefaultConfig())
	require.NoError(t, err)

	// Passage 2 tops both pools: only passage with "timeout", and the
	// query embedding points exactly at its vector.
	require.NotEmpty(t, result.Windows)
	first := result.Windows[0]
	assert.Equal(t, core.ID(2), first.AnchorId)
	assert.Equal(t, 1, first.FusedRank)

	// Neighborhood 1 pulls in both section neighbors, in sequence order.
	require.Len(t, first.Passages, 3)
	assert.Equal(t, core.ID(1), first.Passages[0].Id)
	assert.Equal(t, core.ID(2), first.Passages[1].Id)
	assert.Equal(t, core.ID(3), first.Passages[2].Id)

	assert.Equal(t, 3, result.Status.LexicalHits, `"engine" matches the whole section`)
	assert.Equal(t, 5, result.Status.DenseHits)
	assert.Equal(t, 5, result.Status.FusedCount)
	assert.False(t, result.Status.Degraded)
	assert.Equal(t, RerankDisabled, result.Status.Rerank)

	require.NotNil(t, result.Trace)
	assert.Len(t, result.Trace.LexicalIds, 3)
	assert.Contains(t, result.Trace.TimersMS, "lexical_ms")
	assert.Contains(t, result.Trace.TimersMS, "total_ms")
}

func TestRetrieve_NoDuplicatePassages(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	result, err := engine.Retrieve(context.Background(), "engine timeout", DefaultConfig())
	require.NoError(t, err)

	seen := make(map[core.ID]bool)
	for _, window := range result.Windows {
		for _, passage := range window.Passages {
			assert.False(t, seen[passage.Id], "passage %d emitted twice", passage.Id)
			seen[passage.Id] = true
		}
	}

	// The whole engine section collapses into passage 2's window; the
	// lower-ranked anchors 1 and 3 are already represented.
	assert.NotContains(t, windowAnchors(result.Windows), core.ID(1))
	assert.NotContains(t, windowAnchors(result.Windows), core.ID(3))
}

func TestRetrieve_RadiusZero(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Neighborhood = 0
	result, err := engine.Retrieve(context.Background(), "engine timeout", cfg)
	require.NoError(t, err)

	require.NotEmpty(t, result.Windows)
	for _, window := range result.Windows {
		assert.Len(t, window.Passages, 1)
		assert.Equal(t, window.AnchorId, window.Passages[0].Id)
	}
}

func TestRetrieve_EmbedderFailureDegrades(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("model not loaded")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockScorer())

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	result, err := engine.Retrieve(context.Background(), "engine timeout", DefaultConfig())
	require.NoError(t, err, "lexical hits keep the query alive")

	assert.True(t, result.Status.Degraded)
	assert.Equal(t, "query embedding failed", result.Status.DegradedReason)
	assert.Zero(t, result.Status.DenseHits)
	assert.NotEmpty(t, result.Windows)
	assert.Equal(t, core.ID(2), result.Windows[0].AnchorId)
}

func TestRetrieve_EmbedderFailureWithoutLexicalHits(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("model not loaded")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockScorer())

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	_, err := engine.Retrieve(context.Background(), "zzz qqq", DefaultConfig())
	require.Error(t, err, "nothing to degrade to")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestRetrieve_EmptyCorpus(t *testing.T) {
	engine, cleanup := newTestEngine(t, nil, engineQueryProvider())
	defer cleanup()

	result, err := engine.Retrieve(context.Background(), "anything at all", DefaultConfig())
	require.NoError(t, err)

	assert.Empty(t, result.Windows)
	assert.Zero(t, result.Status.LexicalHits)
	assert.Zero(t, result.Status.DenseHits)
}

func TestRetrieve_FileFilter(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Filter = &Filter{Files: []string{"beta.md"}}
	result, err := engine.Retrieve(context.Background(), "engine cooking", cfg)
	require.NoError(t, err)

	require.NotEmpty(t, result.Windows)
	for _, window := range result.Windows {
		for _, passage := range window.Passages {
			assert.Equal(t, "beta.md", passage.File)
		}
	}
}

func TestRetrieve_FinalKTruncates(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	cfg := DefaultConfig()
	cfg.FinalK = 1
	result, err := engine.Retrieve(context.Background(), "engine cooking", cfg)
	require.NoError(t, err)

	assert.Len(t, result.Windows, 1)
}

func TestRetrieve_Deterministic(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	ctx := context.Background()
	first, err := engine.Retrieve(ctx, "engine timeout", DefaultConfig())
	require.NoError(t, err)
	second, err := engine.Retrieve(ctx, "engine timeout", DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, windowAnchors(first.Windows), windowAnchors(second.Windows))
	assert.Equal(t, first.Trace.FusedIds, second.Trace.FusedIds)
}

func TestRetrieve_RerankApplied(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0.9, 0.1, 0}, nil
	}
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(_ context.Context, _ string, passage string) (float64, error) {
		// Invert the fused preference: the cooking window outgrades
		// the engine window. Passage 5 anchors the cooking window
		// because passage 4 is absorbed into it as a neighbor.
		if passage == "more cooking notes" {
			return 0.95, nil
		}
		return 0.4, nil
	}
	provider := mock.NewMockProviderWithServices(embedder, scorer)

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Rerank.Enabled = true
	result, err := engine.Retrieve(context.Background(), "engine timeout", cfg)
	require.NoError(t, err)

	assert.Equal(t, RerankApplied, result.Status.Rerank)
	require.NotEmpty(t, result.Windows)
	assert.Equal(t, core.ID(5), result.Windows[0].AnchorId)
	assert.NotEmpty(t, result.Reranked)
}

func TestRetrieve_RerankSkippedWithoutCandidates(t *testing.T) {
	provider := mock.NewMockProviderWithServices(engineQueryEmbedder(), mock.NewMockScorer())

	engine, cleanup := newTestEngine(t, nil, provider)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Rerank.Enabled = true
	result, err := engine.Retrieve(context.Background(), "anything at all", cfg)
	require.NoError(t, err)

	// Reranking was on but the pipeline produced no windows to score.
	assert.Empty(t, result.Windows)
	assert.Equal(t, RerankSkipped, result.Status.Rerank)
	assert.Empty(t, result.Reranked)
}

func TestRetrieve_RerankFloorDrops(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(_ context.Context, _ string, passage string) (float64, error) {
		if passage == "configure the engine timeout" {
			return 0.9, nil
		}
		return 0.1, nil
	}
	provider := mock.NewMockProviderWithServices(engineQueryEmbedder(), scorer)

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Rerank.Enabled = true
	cfg.Rerank.MinScore = 0.5
	result, err := engine.Retrieve(context.Background(), "engine timeout", cfg)
	require.NoError(t, err)

	assert.Equal(t, RerankApplied, result.Status.Rerank)
	assert.Equal(t, []core.ID{2}, windowAnchors(result.Windows))

	survived := 0
	for _, item := range result.Reranked {
		if item.SurvivedFloor {
			survived++
		}
	}
	assert.Equal(t, 1, survived)
}

func engineQueryEmbedder() *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(_ context.Context, _ string) ([]float32, error) {
		return []float32{0.9, 0.1, 0}, nil
	}
	return embedder
}

func TestRetrieve_RerankFloorFallback(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(_ context.Context, _, _ string) (float64, error) {
		return 0.05, nil
	}
	provider := mock.NewMockProviderWithServices(engineQueryEmbedder(), scorer)

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Rerank.Enabled = true
	cfg.Rerank.MinScore = 0.9
	result, err := engine.Retrieve(context.Background(), "engine timeout", cfg)
	require.NoError(t, err)

	// The floor killed everything; the fused order comes back instead of
	// an empty result.
	assert.Equal(t, RerankFloorFallback, result.Status.Rerank)
	require.NotEmpty(t, result.Windows)
	assert.Equal(t, core.ID(2), result.Windows[0].AnchorId)
}

func TestRetrieve_RerankScorerFailure(t *testing.T) {
	scorer := mock.NewMockScorer()
	scorer.ScoreFunc = func(_ context.Context, _, _ string) (float64, error) {
		return 0, errors.New("scorer offline")
	}
	provider := mock.NewMockProviderWithServices(engineQueryEmbedder(), scorer)

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Rerank.Enabled = true
	result, err := engine.Retrieve(context.Background(), "engine timeout", cfg)
	require.NoError(t, err, "a broken scorer never fails the query")

	assert.Equal(t, RerankDegraded, result.Status.Rerank)
	assert.Equal(t, core.ID(2), result.Windows[0].AnchorId)
}

func TestRetrieve_RerankWithoutScorer(t *testing.T) {
	provider := mock.NewMockProviderWithServices(engineQueryEmbedder(), nil)

	engine, cleanup := newTestEngine(t, testCorpus(), provider)
	defer cleanup()

	cfg := DefaultConfig()
	cfg.Rerank.Enabled = true
	result, err := engine.Retrieve(context.Background(), "engine timeout", cfg)
	require.NoError(t, err)

	assert.Equal(t, RerankDisabled, result.Status.Rerank)
}

func TestReload_SwapsSnapshot(t *testing.T) {
	passageRepo, lexicalRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		lexicalRepo.Close()
		passageRepo.Close()
		backend.Close()
	}()

	engine, err := NewEngine(passageRepo, lexicalRepo, engineQueryProvider())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, engine.Reload(ctx))

	result, err := engine.Retrieve(ctx, "engine timeout", DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, result.Windows)

	docs := testCorpus()
	require.NoError(t, passageRepo.AddPassages(ctx, docs...))
	for _, doc := range docs {
		require.NoError(t, lexicalRepo.AddDocumentTerms(ctx, doc.Id, core.TermFrequencies(doc.Text)))
	}
	require.NoError(t, engine.Reload(ctx))

	result, err = engine.Retrieve(ctx, "engine timeout", DefaultConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Windows)
}

type recordingMonitor struct {
	started   bool
	lexical   int
	dense     int
	fused     int
	expanded  int
	rerank    RerankMode
	finished  bool
}

func (m *recordingMonitor) Start(_ string)                        { m.started = true }
func (m *recordingMonitor) AfterLexical(items []core.RankedItem)  { m.lexical = len(items) }
func (m *recordingMonitor) AfterDense(items []core.RankedItem)    { m.dense = len(items) }
func (m *recordingMonitor) AfterFusion(items []core.FusedItem)    { m.fused = len(items) }
func (m *recordingMonitor) AfterExpansion(w []core.ContextWindow) { m.expanded = len(w) }
func (m *recordingMonitor) AfterRerank(mode RerankMode, _ []core.RerankedItem) {
	m.rerank = mode
}
func (m *recordingMonitor) Finish(_ *Result) { m.finished = true }

func TestRetrieveWithMonitor(t *testing.T) {
	engine, cleanup := newTestEngine(t, testCorpus(), engineQueryProvider())
	defer cleanup()

	monitor := &recordingMonitor{}
	_, err := engine.RetrieveWithMonitor(context.Background(), "engine timeout", DefaultConfig(), monitor)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.Equal(t, 3, monitor.lexical)
	assert.Equal(t, 5, monitor.dense)
	assert.Equal(t, 5, monitor.fused)
	assert.Positive(t, monitor.expanded)
	assert.Equal(t, RerankDisabled, monitor.rerank)
	assert.True(t, monitor.finished)
}
