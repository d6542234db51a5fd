package retrieve

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// Snapshot is an immutable view of the index used for ranking.
// Once built it is never mutated; the engine swaps whole snapshots.
type Snapshot struct {
	// postings maps a term to its postings, ordered by passage id ascending.
	postings map[string][]core.Posting

	// docLength is the token count per passage, for BM25 length normalization.
	docLength map[core.ID]int

	avgDocLength float64
	docCount     int

	// vectors holds L2-normalized embeddings for passages that have one.
	vectors map[core.ID][]float32

	// denseIds lists the keys of vectors in ascending order, so dense
	// ranking visits passages deterministically.
	denseIds []core.ID
}

// DocCount returns the number of passages in the snapshot.
func (s *Snapshot) DocCount() int {
	return s.docCount
}

// DenseCount returns the number of passages with embeddings.
func (s *Snapshot) DenseCount() int {
	return len(s.denseIds)
}

// BuildSnapshot reads the repositories into a new immutable snapshot.
func BuildSnapshot(
	ctx context.Context,
	passages storage.PassageRepository,
	lexical storage.LexicalIndexRepository,
	logger *slog.Logger,
) (*Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	snapshot := &Snapshot{
		postings:  make(map[string][]core.Posting),
		docLength: make(map[core.ID]int),
		vectors:   make(map[core.ID][]float32),
	}

	totalLength := 0
	err := passages.IteratePassages(ctx, func(passage *core.Passage) error {
		length := passage.TokenCount
		if length <= 0 {
			length = len(core.Tokenize(passage.Text))
		}
		snapshot.docLength[passage.Id] = length
		totalLength += length
		snapshot.docCount++

		if vector := normalizeVector(passage.Vector); vector != nil {
			snapshot.vectors[passage.Id] = vector
			snapshot.denseIds = append(snapshot.denseIds, passage.Id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snapshot.docCount > 0 {
		snapshot.avgDocLength = float64(totalLength) / float64(snapshot.docCount)
	}

	err = lexical.IteratePostings(ctx, func(term string, posting core.Posting) error {
		snapshot.postings[term] = append(snapshot.postings[term], posting)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// IteratePostings yields keys in byte order, which groups terms but
	// also orders postings by passage id. Sort anyway so the ranking
	// contract doesn't depend on the backend.
	for term := range snapshot.postings {
		list := snapshot.postings[term]
		sort.Slice(list, func(i, j int) bool {
			return list[i].PassageId < list[j].PassageId
		})
	}

	sort.Slice(snapshot.denseIds, func(i, j int) bool {
		return snapshot.denseIds[i] < snapshot.denseIds[j]
	})

	logger.Debug("built index snapshot",
		"passages", snapshot.docCount,
		"terms", len(snapshot.postings),
		"embedded", len(snapshot.denseIds))

	return snapshot, nil
}

// normalizeVector returns an L2-normalized copy of v, or nil when v is
// empty or has zero magnitude.
func normalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return nil
	}
	norm := float32(1.0 / math.Sqrt(sumSquares))
	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = x * norm
	}
	return normalized
}
