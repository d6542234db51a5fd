package retrieve

import (
	"sort"

	"github.com/poiesic/docsearch/core"
)

// fuseRRF merges the two candidate pools with reciprocal rank fusion.
// A passage absent from one pool simply contributes no term for it; there
// is no penalty rank. The merged order is fully deterministic: fused score
// descending, then number of contributing rankers descending, then best
// single-ranker rank ascending, then passage id ascending.
func fuseRRF(lexical, dense []core.RankedItem, rrfK int) []core.FusedItem {
	fused := make(map[core.ID]*core.FusedItem, len(lexical)+len(dense))

	for _, item := range lexical {
		fused[item.PassageId] = &core.FusedItem{
			PassageId:   item.PassageId,
			FusedScore:  1.0 / float64(rrfK+item.Rank),
			LexicalRank: item.Rank,
		}
	}
	for _, item := range dense {
		if existing, ok := fused[item.PassageId]; ok {
			existing.FusedScore += 1.0 / float64(rrfK+item.Rank)
			existing.DenseRank = item.Rank
			continue
		}
		fused[item.PassageId] = &core.FusedItem{
			PassageId:  item.PassageId,
			FusedScore: 1.0 / float64(rrfK+item.Rank),
			DenseRank:  item.Rank,
		}
	}

	items := make([]core.FusedItem, 0, len(fused))
	for _, item := range fused {
		items = append(items, *item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].FusedScore != items[j].FusedScore {
			return items[i].FusedScore > items[j].FusedScore
		}
		if items[i].Sources() != items[j].Sources() {
			return items[i].Sources() > items[j].Sources()
		}
		if items[i].MinRank() != items[j].MinRank() {
			return items[i].MinRank() < items[j].MinRank()
		}
		return items[i].PassageId < items[j].PassageId
	})

	return items
}
