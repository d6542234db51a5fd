package retrieve

import (
	"context"
	"sort"

	"github.com/poiesic/docsearch/core"
)

// RerankMode reports what the reranking stage actually did for a query.
type RerankMode string

const (
	// RerankApplied means windows were scored and reordered.
	RerankApplied RerankMode = "applied"

	// RerankDisabled means reranking was off or no scorer is configured.
	RerankDisabled RerankMode = "disabled"

	// RerankSkipped means reranking was on but there were no windows to
	// score.
	RerankSkipped RerankMode = "skipped"

	// RerankDegraded means the scorer failed mid-query and the fused
	// order was kept.
	RerankDegraded RerankMode = "degraded"

	// RerankFloorFallback means every scored window fell below the floor
	// and the fused order was kept rather than returning nothing.
	RerankFloorFallback RerankMode = "floor_fallback"
)

// rerankWindows scores the first cfg.TopK windows against the query and
// reorders them by relevance. Windows beyond the budget keep their fused
// order, appended after the survivors. Scored windows below cfg.MinScore
// are dropped unless the floor would drop every window.
//
// The scorer grades the anchor passage, not the whole window: neighbors are
// context for the reader, the anchor is what matched.
func (e *Engine) rerankWindows(ctx context.Context, query string, windows []core.ContextWindow, cfg RerankConfig) ([]core.ContextWindow, []core.RerankedItem, RerankMode) {
	if !cfg.Enabled {
		return windows, nil, RerankDisabled
	}
	if e.scorer == nil {
		e.logger.Debug("reranking requested but no scorer configured")
		return windows, nil, RerankDisabled
	}

	budget := cfg.TopK
	if budget > len(windows) {
		budget = len(windows)
	}
	if budget == 0 {
		return windows, nil, RerankSkipped
	}

	items := make([]core.RerankedItem, 0, budget)
	for i := 0; i < budget; i++ {
		window := windows[i]
		score, err := e.scorer.Score(ctx, query, anchorText(window))
		if err != nil {
			e.logger.Warn("relevance scorer failed, keeping fused order", "err", err)
			return windows, items, RerankDegraded
		}
		items = append(items, core.RerankedItem{
			PassageId:     window.AnchorId,
			RerankScore:   score,
			SurvivedFloor: score >= cfg.MinScore,
		})
	}

	survivors := make([]int, 0, budget)
	for i, item := range items {
		if item.SurvivedFloor {
			survivors = append(survivors, i)
		}
	}
	if len(survivors) == 0 {
		e.logger.Debug("relevance floor dropped every window, keeping fused order",
			"floor", cfg.MinScore, "scored", len(items))
		return windows, items, RerankFloorFallback
	}

	// Stable sort keeps fused order among equal scores.
	sort.SliceStable(survivors, func(a, b int) bool {
		return items[survivors[a]].RerankScore > items[survivors[b]].RerankScore
	})

	reordered := make([]core.ContextWindow, 0, len(survivors)+len(windows)-budget)
	for _, i := range survivors {
		reordered = append(reordered, windows[i])
	}
	reordered = append(reordered, windows[budget:]...)

	return reordered, items, RerankApplied
}

// anchorText returns the text of the window's anchor passage.
func anchorText(window core.ContextWindow) string {
	for _, passage := range window.Passages {
		if passage.Id == window.AnchorId {
			return passage.Text
		}
	}
	// The anchor is always emitted with its window; this is a safety net
	// for hand-built windows in tests.
	if len(window.Passages) > 0 {
		return window.Passages[0].Text
	}
	return ""
}
