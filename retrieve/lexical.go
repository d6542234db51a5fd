package retrieve

import (
	"math"
	"sort"

	"github.com/poiesic/docsearch/core"
)

// BM25 parameters (Okapi).
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// lexicalRank scores the query terms against the snapshot's postings with
// BM25 and returns the top topK passages. Ordering is deterministic: score
// descending, then passage id ascending. An empty term list or an empty
// index yields an empty result.
func (s *Snapshot) lexicalRank(terms []string, topK int) []core.RankedItem {
	if len(terms) == 0 || s.docCount == 0 {
		return []core.RankedItem{}
	}

	scores := make(map[core.ID]float64)
	for _, term := range terms {
		postings, ok := s.postings[term]
		if !ok {
			continue
		}
		idf := idfFor(s.docCount, len(postings))
		for _, posting := range postings {
			tf := float64(posting.TermFreq)
			docLength := float64(s.docLength[posting.PassageId])
			denom := tf + bm25K1*(1-bm25B+bm25B*docLength/s.avgDocLength)
			scores[posting.PassageId] += idf * tf * (bm25K1 + 1) / denom
		}
	}

	return rankScores(scores, topK)
}

// idfFor computes the BM25+ style inverse document frequency, which stays
// positive even for terms present in most documents.
func idfFor(docCount, docFreq int) float64 {
	n := float64(docCount)
	nq := float64(docFreq)
	return math.Log1p((n - nq + 0.5) / (nq + 0.5))
}

// rankScores orders a score map deterministically and assigns 1-based ranks.
func rankScores(scores map[core.ID]float64, topK int) []core.RankedItem {
	items := make([]core.RankedItem, 0, len(scores))
	for id, score := range scores {
		items = append(items, core.RankedItem{PassageId: id, RawScore: score})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].RawScore != items[j].RawScore {
			return items[i].RawScore > items[j].RawScore
		}
		return items[i].PassageId < items[j].PassageId
	})

	if topK > 0 && len(items) > topK {
		items = items[:topK]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}
