package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// Engine runs hybrid retrieval queries against an index snapshot.
// It is safe for concurrent use; Reload swaps snapshots atomically under
// live queries.
type Engine struct {
	passages storage.PassageRepository
	lexical  storage.LexicalIndexRepository
	embedder ai.Embedder
	scorer   ai.RelevanceScorer
	snapshot atomic.Pointer[Snapshot]
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a retrieval engine over the given repositories and AI
// provider. The engine starts without a snapshot; call Reload before the
// first query.
func NewEngine(
	passages storage.PassageRepository,
	lexical storage.LexicalIndexRepository,
	provider ai.Provider,
	opts ...Option,
) (*Engine, error) {
	if passages == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if lexical == nil {
		return nil, ErrLexicalRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		passages: passages,
		lexical:  lexical,
		embedder: provider.Embedder(),
		scorer:   provider.RelevanceScorer(),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Reload builds a fresh snapshot from the repositories and swaps it in.
// Queries in flight keep ranking against the snapshot they started with.
func (e *Engine) Reload(ctx context.Context) error {
	snapshot, err := BuildSnapshot(ctx, e.passages, e.lexical, e.logger)
	if err != nil {
		return fmt.Errorf("building snapshot: %w", err)
	}
	e.snapshot.Store(snapshot)
	e.logger.Info("index snapshot reloaded",
		"passages", snapshot.DocCount(),
		"embedded", snapshot.DenseCount())
	return nil
}

// Status summarizes what each retrieval stage produced.
type Status struct {
	// LexicalHits and DenseHits are the candidate pool sizes after ranking.
	LexicalHits int `json:"lexical_hits"`
	DenseHits   int `json:"dense_hits"`

	// FusedCount is the merged candidate count before expansion.
	FusedCount int `json:"fused_count"`

	// WindowCount is the number of context windows returned.
	WindowCount int `json:"window_count"`

	// SkippedAnchors counts fused anchors that could not be resolved in
	// storage.
	SkippedAnchors int `json:"skipped_anchors,omitempty"`

	// Rerank reports what the reranking stage did.
	Rerank RerankMode `json:"rerank"`

	// Degraded is set when a ranker was unavailable and the query ran in
	// reduced form instead of failing.
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`
}

// Trace records per-stage candidate ids and timings for debugging.
type Trace struct {
	LexicalIds []core.ID          `json:"lexical_ids"`
	DenseIds   []core.ID          `json:"dense_ids"`
	FusedIds   []core.ID          `json:"fused_ids"`
	AnchorIds  []core.ID          `json:"anchor_ids"`
	TimersMS   map[string]float64 `json:"timers_ms"`
}

// Result is the outcome of a retrieval query.
type Result struct {
	// Windows are the final context windows, best first.
	Windows []core.ContextWindow

	// Reranked holds the scorer's grades when reranking ran.
	Reranked []core.RerankedItem

	Status Status
	Trace  *Trace
}

// Retrieve runs the full retrieval pipeline for the query.
func (e *Engine) Retrieve(ctx context.Context, query string, cfg Config) (*Result, error) {
	return e.RetrieveWithMonitor(ctx, query, cfg, nil)
}

// RetrieveWithMonitor runs the full retrieval pipeline with monitoring.
// The monitor receives callbacks after each stage.
//
// Data sparsity is never an error: an empty corpus, a blank query, a query
// with no hits, or a missing dense index all produce a (possibly empty,
// possibly degraded) result. The error returns are invalid configuration,
// an unloaded index, storage read failures, and an embedder failure when
// the lexical ranker also found nothing.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, query string, cfg Config, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	snapshot := e.snapshot.Load()
	if snapshot == nil {
		return nil, ErrIndexNotLoaded
	}

	monitor.Start(query)
	started := time.Now()
	trace := &Trace{TimersMS: make(map[string]float64)}
	status := Status{}

	// 1. Lexical and dense ranking in parallel. The dense ranker never
	// fails the group: an embedder outage is recorded and resolved after
	// both pools are in. A blank query tokenizes to nothing and skips the
	// embedder; both pools come back empty and the result is empty.
	terms := core.Tokenize(query)
	blank := strings.TrimSpace(query) == ""
	var lexicalItems, denseItems []core.RankedItem
	var lexicalMS, denseMS float64
	var embedErr error

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		stage := time.Now()
		lexicalItems = snapshot.lexicalRank(terms, cfg.TopKLexical)
		lexicalMS = millisecondsSince(stage)
		return nil
	})
	group.Go(func() error {
		stage := time.Now()
		defer func() { denseMS = millisecondsSince(stage) }()
		if blank {
			denseItems = []core.RankedItem{}
			return nil
		}
		vector, err := e.embedder.EmbedText(groupCtx, query)
		if err != nil {
			embedErr = err
			denseItems = []core.RankedItem{}
			return nil
		}
		denseItems = snapshot.denseRank(vector, cfg.TopKDense)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	trace.TimersMS["lexical_ms"] = lexicalMS
	trace.TimersMS["dense_ms"] = denseMS

	if embedErr != nil {
		if len(lexicalItems) == 0 {
			return nil, fmt.Errorf("embedding query: %w", embedErr)
		}
		e.logger.Warn("query embedding failed, degrading to lexical-only", "err", embedErr)
		status.Degraded = true
		status.DegradedReason = "query embedding failed"
	} else if snapshot.DenseCount() == 0 && snapshot.DocCount() > 0 {
		status.Degraded = true
		status.DegradedReason = "no embeddings in index"
	}

	status.LexicalHits = len(lexicalItems)
	status.DenseHits = len(denseItems)
	trace.LexicalIds = rankedIds(lexicalItems)
	trace.DenseIds = rankedIds(denseItems)
	monitor.AfterLexical(lexicalItems)
	monitor.AfterDense(denseItems)

	// 2. Reciprocal rank fusion
	stage := time.Now()
	fused := fuseRRF(lexicalItems, denseItems, cfg.RRFK)
	trace.TimersMS["fuse_ms"] = millisecondsSince(stage)
	status.FusedCount = len(fused)
	trace.FusedIds = make([]core.ID, len(fused))
	for i, item := range fused {
		trace.FusedIds[i] = item.PassageId
	}
	monitor.AfterFusion(fused)

	// 3. Neighbor expansion
	stage = time.Now()
	windows, skipped, err := e.expandNeighbors(ctx, fused, cfg)
	trace.TimersMS["expand_ms"] = millisecondsSince(stage)
	if err != nil {
		e.logger.Error("neighbor expansion failed", "err", err)
		return nil, err
	}
	status.SkippedAnchors = skipped
	trace.AnchorIds = make([]core.ID, len(windows))
	for i, window := range windows {
		trace.AnchorIds[i] = window.AnchorId
	}
	monitor.AfterExpansion(windows)

	// 4. Reranking
	stage = time.Now()
	windows, reranked, mode := e.rerankWindows(ctx, query, windows, cfg.Rerank)
	trace.TimersMS["rerank_ms"] = millisecondsSince(stage)
	status.Rerank = mode
	monitor.AfterRerank(mode, reranked)

	// 5. Final truncation
	if len(windows) > cfg.FinalK {
		windows = windows[:cfg.FinalK]
	}
	status.WindowCount = len(windows)
	trace.TimersMS["total_ms"] = millisecondsSince(started)

	result := &Result{
		Windows:  windows,
		Reranked: reranked,
		Status:   status,
		Trace:    trace,
	}
	monitor.Finish(result)

	e.logger.Debug("retrieval complete",
		"lexical", status.LexicalHits,
		"dense", status.DenseHits,
		"fused", status.FusedCount,
		"windows", status.WindowCount,
		"rerank", status.Rerank,
		"degraded", status.Degraded)

	return result, nil
}

func rankedIds(items []core.RankedItem) []core.ID {
	ids := make([]core.ID, len(items))
	for i, item := range items {
		ids[i] = item.PassageId
	}
	return ids
}

func millisecondsSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
