package retrieve

import "github.com/poiesic/docsearch/core"

// Monitor provides hooks to observe the retrieval pipeline.
// Implement this interface to track intermediate results at each stage.
type Monitor interface {
	Start(query string)
	AfterLexical(items []core.RankedItem)
	AfterDense(items []core.RankedItem)
	AfterFusion(items []core.FusedItem)
	AfterExpansion(windows []core.ContextWindow)
	AfterRerank(mode RerankMode, items []core.RerankedItem)
	Finish(result *Result)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) AfterLexical(_ []core.RankedItem)               {}
func (n *noopMonitor) AfterDense(_ []core.RankedItem)                 {}
func (n *noopMonitor) AfterFusion(_ []core.FusedItem)                 {}
func (n *noopMonitor) AfterExpansion(_ []core.ContextWindow)          {}
func (n *noopMonitor) AfterRerank(_ RerankMode, _ []core.RerankedItem) {}
func (n *noopMonitor) Finish(_ *Result)                               {}
