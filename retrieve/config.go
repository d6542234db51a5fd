package retrieve

import (
	"github.com/poiesic/docsearch/core"
)

// RerankConfig controls the optional LLM reranking stage.
type RerankConfig struct {
	// Enabled turns reranking on. A provider without a relevance scorer
	// overrides this and the stage reports itself disabled.
	Enabled bool

	// TopK is the scoring budget: only the first TopK fused windows are
	// graded. Windows beyond the budget keep their pre-rerank order.
	TopK int

	// MinScore is the relevance floor. Scored windows below it are dropped
	// unless the floor would drop everything.
	MinScore float64
}

// Filter restricts results to a subset of the corpus.
// The zero value matches every passage.
type Filter struct {
	// Files limits results to passages from the named source files.
	Files []string

	// PageLo and PageHi bound the page range, inclusive. Zero means
	// unbounded on that side. Unpaginated passages (page 0) only match
	// when no page bounds are set.
	PageLo int
	PageHi int
}

// Matches reports whether the passage passes the filter.
func (f *Filter) Matches(passage *core.Passage) bool {
	if f == nil {
		return true
	}
	if len(f.Files) > 0 {
		found := false
		for _, file := range f.Files {
			if passage.File == file {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.PageLo > 0 && passage.Page < f.PageLo {
		return false
	}
	if f.PageHi > 0 && passage.Page > f.PageHi {
		return false
	}
	return true
}

// Config is the per-query retrieval configuration.
type Config struct {
	// TopKLexical is the size of the BM25 candidate pool.
	TopKLexical int

	// TopKDense is the size of the embedding candidate pool.
	TopKDense int

	// RRFK is the reciprocal rank fusion constant.
	RRFK int

	// Neighborhood is the expansion radius: how many adjacent passages on
	// each side of an anchor join its context window. Zero yields
	// single-passage windows.
	Neighborhood int

	// FinalK is the number of context windows returned.
	FinalK int

	// Rerank configures the optional reranking stage.
	Rerank RerankConfig

	// Filter optionally restricts anchors to a subset of the corpus.
	Filter *Filter
}

// DefaultConfig returns the standard retrieval configuration.
func DefaultConfig() Config {
	return Config{
		TopKLexical:  40,
		TopKDense:    40,
		RRFK:         60,
		Neighborhood: 1,
		FinalK:       8,
		Rerank: RerankConfig{
			Enabled:  false,
			TopK:     50,
			MinScore: 0,
		},
	}
}

// Validate checks the configuration for values that would make retrieval
// meaningless. It is called eagerly at the engine entry point so bad
// configurations fail before any ranking work happens.
func (c Config) Validate() error {
	if c.TopKLexical <= 0 {
		return ErrInvalidTopK
	}
	if c.TopKDense <= 0 {
		return ErrInvalidTopK
	}
	if c.RRFK <= 0 {
		return ErrInvalidRRFK
	}
	if c.Neighborhood < 0 {
		return ErrInvalidNeighborhood
	}
	if c.FinalK <= 0 {
		return ErrInvalidFinalK
	}
	if c.Rerank.Enabled {
		if c.Rerank.TopK <= 0 {
			return ErrInvalidRerankTopK
		}
		if c.Rerank.MinScore < 0 || c.Rerank.MinScore > 1 {
			return ErrInvalidMinScore
		}
	}
	return nil
}
