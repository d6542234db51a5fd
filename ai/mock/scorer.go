package mock

import (
	"context"
	"strings"
)

// MockScorer is a test double for ai.RelevanceScorer.
// It allows custom behavior injection via function fields.
type MockScorer struct {
	// ScoreFunc is called by Score if set.
	// If nil, uses default word-overlap behavior.
	ScoreFunc func(ctx context.Context, query, passage string) (float64, error)

	callCount int
}

// NewMockScorer creates a mock scorer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions via GetMockScorer().
func NewMockScorer() *MockScorer {
	return &MockScorer{}
}

// Score grades a query/passage pair deterministically.
// Default behavior: the fraction of query words that appear in the passage.
func (m *MockScorer) Score(ctx context.Context, query, passage string) (float64, error) {
	m.callCount++

	if m.ScoreFunc != nil {
		return m.ScoreFunc(ctx, query, passage)
	}

	queryWords := strings.Fields(strings.ToLower(query))
	if len(queryWords) == 0 {
		return 0, nil
	}

	passageText := strings.ToLower(passage)
	matched := 0
	for _, word := range queryWords {
		if strings.Contains(passageText, word) {
			matched++
		}
	}

	return float64(matched) / float64(len(queryWords)), nil
}

// CallCount returns the number of times Score was called.
func (m *MockScorer) CallCount() int {
	return m.callCount
}

// Reset clears the call count.
func (m *MockScorer) Reset() {
	m.callCount = 0
	m.ScoreFunc = nil
}
