package storage

import (
	"context"

	"github.com/poiesic/docsearch/core"
)

// PassageRepository provides access to indexed passages and their section
// adjacency. Implementations must be thread-safe: queries read concurrently
// while index builds happen on a separate generation.
type PassageRepository interface {
	// AddPassages persists passages along with their section and file indexes.
	// Passages are validated before writing.
	AddPassages(ctx context.Context, passages ...*core.Passage) error

	// GetPassage retrieves a single passage by ID.
	// Returns ErrNotFound if the passage doesn't exist.
	GetPassage(ctx context.Context, id core.ID) (*core.Passage, error)

	// GetPassages retrieves multiple passages by their IDs.
	// Returns only the passages that exist (no error for missing passages).
	GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error)

	// GetNeighbors returns the run of passages around the given sequence
	// position within one section: up to radius passages on each side plus the
	// passage at the position itself, ordered by sequence index. The result
	// never includes passages from another section; at section boundaries the
	// run is simply shorter.
	GetNeighbors(ctx context.Context, sectionID core.ID, sequenceIndex, radius int) ([]*core.Passage, error)

	// GetPassagesByFile retrieves all passages originating from a source file,
	// ordered by section and sequence index.
	GetPassagesByFile(ctx context.Context, file string) ([]*core.Passage, error)

	// DeletePassages removes passages and their index entries.
	// Returns ErrNotFound if any passage doesn't exist.
	DeletePassages(ctx context.Context, ids ...core.ID) error

	// IteratePassages visits every stored passage in ascending ID order.
	// Iteration stops early if fn returns an error, which is propagated.
	IteratePassages(ctx context.Context, fn func(*core.Passage) error) error

	// Close closes the repository and releases resources.
	Close() error
}

// LexicalIndexRepository stores the per-term posting lists backing BM25
// scoring. Implementations must be thread-safe for concurrent readers.
type LexicalIndexRepository interface {
	// AddDocumentTerms records the term frequencies of one passage.
	AddDocumentTerms(ctx context.Context, id core.ID, termFreqs map[string]int) error

	// RemoveDocumentTerms removes a passage's postings for the given terms.
	// Terms the passage never posted are ignored.
	RemoveDocumentTerms(ctx context.Context, id core.ID, terms []string) error

	// IteratePostings visits every posting in term order.
	// Iteration stops early if fn returns an error, which is propagated.
	IteratePostings(ctx context.Context, fn func(term string, posting core.Posting) error) error

	// Close closes the repository and releases resources.
	Close() error
}
