package retrieve

import (
	"testing"

	"github.com/poiesic/docsearch/core"
	"github.com/stretchr/testify/assert"
)

func ranked(ids ...core.ID) []core.RankedItem {
	items := make([]core.RankedItem, len(ids))
	for i, id := range ids {
		items[i] = core.RankedItem{PassageId: id, Rank: i + 1}
	}
	return items
}

func fusedIds(items []core.FusedItem) []core.ID {
	ids := make([]core.ID, len(items))
	for i, item := range items {
		ids[i] = item.PassageId
	}
	return ids
}

func TestFuseRRF_MergesBothPools(t *testing.T) {
	const a, b, c, d = core.ID(1), core.ID(2), core.ID(3), core.ID(4)

	// B leads both pools' overlap, A follows, D and C appear once each.
	fused := fuseRRF(ranked(a, b, c), ranked(b, d, a), 60)

	assert.Equal(t, []core.ID{b, a, d, c}, fusedIds(fused))
}

func TestFuseRRF_RecordsSourceRanks(t *testing.T) {
	const a, b = core.ID(10), core.ID(20)

	fused := fuseRRF(ranked(a, b), ranked(b), 60)

	byId := make(map[core.ID]core.FusedItem)
	for _, item := range fused {
		byId[item.PassageId] = item
	}

	assert.Equal(t, 1, byId[a].LexicalRank)
	assert.Equal(t, 0, byId[a].DenseRank, "absent ranker records rank 0")
	assert.Equal(t, 2, byId[b].LexicalRank)
	assert.Equal(t, 1, byId[b].DenseRank)
	assert.Equal(t, 1, byId[a].Sources())
	assert.Equal(t, 2, byId[b].Sources())
}

func TestFuseRRF_AbsenceIsNotPenalized(t *testing.T) {
	// A passage missing from one pool contributes no term for it; its
	// score is exactly the single pool's contribution.
	fused := fuseRRF(ranked(core.ID(7)), nil, 60)

	assert.Len(t, fused, 1)
	assert.InDelta(t, 1.0/61.0, fused[0].FusedScore, 1e-12)
}

func TestFuseRRF_TieBreaksOnSourceCount(t *testing.T) {
	// With rrfK=0 the contributions are exact binary fractions, so the
	// single-pool item at rank 2 and the both-pools item at rank 4 twice
	// score identically (1/2 = 1/4 + 1/4). The two-source item wins.
	lexical := []core.RankedItem{
		{PassageId: 1, Rank: 2},
		{PassageId: 2, Rank: 4},
	}
	dense := []core.RankedItem{
		{PassageId: 2, Rank: 4},
	}

	fused := fuseRRF(lexical, dense, 0)

	assert.Equal(t, []core.ID{2, 1}, fusedIds(fused))
	assert.Equal(t, fused[0].FusedScore, fused[1].FusedScore)
}

func TestFuseRRF_TieBreaksOnPassageId(t *testing.T) {
	// Same rank in opposite pools: identical score, identical source
	// count, identical best rank. The lower id wins, regardless of
	// insertion order.
	lexical := []core.RankedItem{{PassageId: 9, Rank: 3}}
	dense := []core.RankedItem{{PassageId: 4, Rank: 3}}

	fused := fuseRRF(lexical, dense, 60)

	assert.Equal(t, []core.ID{4, 9}, fusedIds(fused))
}

func TestFuseRRF_EmptyPools(t *testing.T) {
	fused := fuseRRF(nil, nil, 60)
	assert.Empty(t, fused)
}
