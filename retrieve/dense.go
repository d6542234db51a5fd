package retrieve

import (
	"github.com/poiesic/docsearch/core"
)

// denseRank scores the query embedding against the snapshot's normalized
// vectors and returns the top topK passages by cosine similarity. Ordering
// matches lexicalRank: score descending, then passage id ascending. An
// empty dense index or a degenerate query vector yields an empty result.
func (s *Snapshot) denseRank(queryVector []float32, topK int) []core.RankedItem {
	query := normalizeVector(queryVector)
	if query == nil || len(s.denseIds) == 0 {
		return []core.RankedItem{}
	}

	scores := make(map[core.ID]float64, len(s.denseIds))
	for _, id := range s.denseIds {
		vector := s.vectors[id]
		if len(vector) != len(query) {
			continue
		}
		var dot float64
		for i, q := range query {
			dot += float64(q) * float64(vector[i])
		}
		scores[id] = dot
	}

	return rankScores(scores, topK)
}
