package retrieve

import (
	"context"
	"errors"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// expandNeighbors turns fused anchors into context windows of adjacent
// passages, in fused order. Expansion never crosses a section boundary;
// the repository's adjacency index enforces that.
//
// A passage appears in at most one window. Neighbors already emitted by an
// earlier window are omitted, and an anchor already emitted drops its whole
// window since the passage is represented at a better rank. Anchors that
// cannot be resolved in storage are logged and skipped, never failing the
// query. The returned count is the number of skipped anchors.
func (e *Engine) expandNeighbors(ctx context.Context, fused []core.FusedItem, cfg Config) ([]core.ContextWindow, int, error) {
	windows := make([]core.ContextWindow, 0, len(fused))
	seen := make(map[core.ID]bool)
	skipped := 0

	for position, item := range fused {
		anchor, err := e.passages.GetPassage(ctx, item.PassageId)
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("fused anchor missing from storage, skipping",
				"passageId", item.PassageId)
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, err
		}

		if !cfg.Filter.Matches(anchor) {
			continue
		}
		if seen[anchor.Id] {
			continue
		}

		var neighbors []*core.Passage
		if cfg.Neighborhood == 0 {
			neighbors = []*core.Passage{anchor}
		} else {
			neighbors, err = e.passages.GetNeighbors(ctx, anchor.SectionId, anchor.SequenceIndex, cfg.Neighborhood)
			if errors.Is(err, storage.ErrNotFound) {
				// Anchor record exists but its section index entry is
				// gone. Fall back to the anchor alone.
				e.logger.Warn("anchor missing from section index",
					"passageId", anchor.Id, "sectionId", anchor.SectionId)
				neighbors = []*core.Passage{anchor}
			} else if err != nil {
				return nil, skipped, err
			}
		}

		passages := make([]*core.Passage, 0, len(neighbors))
		for _, passage := range neighbors {
			if seen[passage.Id] {
				continue
			}
			seen[passage.Id] = true
			passages = append(passages, passage)
		}

		windows = append(windows, core.ContextWindow{
			AnchorId:  anchor.Id,
			FusedRank: position + 1,
			Passages:  passages,
		})
	}

	return windows, skipped, nil
}
