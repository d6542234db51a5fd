package core

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that re-indexing the same
// corpus yields the same identifiers.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SectionIDFor derives the adjacency grouping key for a source file and
// heading path. Passages sharing a section id are neighbors in reading order.
func SectionIDFor(file string, headingPath []string) ID {
	return IDFromContent(file + "\x1f" + strings.Join(headingPath, "\x1f"))
}

// PassageIDFor derives a stable passage id from its position within a section.
func PassageIDFor(file string, headingPath []string, sequenceIndex int) ID {
	return IDFromContent(file + "\x1f" + strings.Join(headingPath, "\x1f") + "\x1f" + strconv.Itoa(sequenceIndex))
}

// Passage is the immutable unit of retrieval. Passages are created at
// index-build time and are read-only afterwards.
type Passage struct {
	Id            ID
	Text          string
	File          string    // source path
	HeadingPath   []string  // ordered section headings, outermost first
	Page          int       // 0 when the source carries no pagination
	SectionId     ID        // grouping key for adjacency
	SequenceIndex int       // position within the section, strictly increasing
	TokenCount    int       // lexical length, used by BM25 length normalization
	Vector        []float32 // embedding for dense search (populated at index time)
}

// Section is a parsed, contiguous span of a source document handed to the
// ingestion pipeline. Parsing itself happens outside this module.
type Section struct {
	File        string
	HeadingPath []string
	Page        int
	Text        string
}

// Posting records one passage's term frequency for a single term in the
// lexical index.
type Posting struct {
	PassageId ID
	TermFreq  int
}

// RankedItem is one entry of a single ranker's ordering.
type RankedItem struct {
	PassageId ID
	Rank      int     // 1-based position within the producing ranker's ordering
	RawScore  float64 // ranker-internal; never comparable across rankers
}

// FusedItem is one entry of the reciprocal-rank-fused ordering.
// LexicalRank and DenseRank record where each ranker placed the passage,
// with 0 meaning the passage was absent from that ranker's list.
type FusedItem struct {
	PassageId   ID
	FusedScore  float64
	LexicalRank int
	DenseRank   int
}

// Sources returns how many rankers contributed to this item.
func (f FusedItem) Sources() int {
	n := 0
	if f.LexicalRank > 0 {
		n++
	}
	if f.DenseRank > 0 {
		n++
	}
	return n
}

// MinRank returns the best (lowest) rank across contributing rankers,
// or 0 when no ranker contributed.
func (f FusedItem) MinRank() int {
	switch {
	case f.LexicalRank > 0 && f.DenseRank > 0:
		return min(f.LexicalRank, f.DenseRank)
	case f.LexicalRank > 0:
		return f.LexicalRank
	default:
		return f.DenseRank
	}
}

// ContextWindow is an ordered run of passages from one expansion group:
// the anchor passage plus surviving neighbors, in local reading order.
type ContextWindow struct {
	AnchorId  ID
	FusedRank int // 1-based rank of the anchor in the fused ordering
	Passages  []*Passage
}

// RerankedItem records the cross-encoder verdict for one context window,
// keyed by the window's anchor passage.
type RerankedItem struct {
	PassageId     ID
	RerankScore   float64
	SurvivedFloor bool
}
