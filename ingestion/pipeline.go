package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// embedBatchSize is the number of passages sent to the embedder per call.
const embedBatchSize = 16

// Pipeline orchestrates indexing of document sections.
// It chunks sections into passages, embeds them over a worker pool, and
// persists passages and term postings.
type Pipeline struct {
	passageRepository storage.PassageRepository
	lexicalRepository storage.LexicalIndexRepository
	embedder          ai.Embedder
	chunker           *Chunker
	pool              *ants.Pool
	logger            *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunkWindow sets the chunking window size and overlap, in tokens.
func WithChunkWindow(size, overlap int) Option {
	return func(p *Pipeline) error {
		p.chunker = NewChunker(size, overlap, p.logger)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	passageRepository storage.PassageRepository,
	lexicalRepository storage.LexicalIndexRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if lexicalRepository == nil {
		return nil, ErrLexicalRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		passageRepository: passageRepository,
		lexicalRepository: lexicalRepository,
		embedder:          provider.Embedder(),
		pool:              pool,
		logger:            slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	if p.chunker == nil {
		p.chunker = NewChunker(DefaultChunkTokens, DefaultChunkOverlap, p.logger)
	}

	return p, nil
}

// IndexSections chunks, embeds, and persists the given sections.
// Returns the number of passages written.
//
// Embedding runs in batches across the worker pool. A failed batch leaves
// its passages without vectors: they still get term postings and remain
// findable lexically, and the failure is logged rather than returned.
// Storage write failures do fail the call.
func (p *Pipeline) IndexSections(ctx context.Context, sections []*core.Section) (int, error) {
	passages := make([]*core.Passage, 0, len(sections))
	for _, section := range sections {
		passages = append(passages, p.chunker.Chunk(section)...)
	}
	if len(passages) == 0 {
		return 0, nil
	}

	p.embedAll(ctx, passages)

	for _, passage := range passages {
		if err := core.ValidatePassage(passage); err != nil {
			return 0, err
		}
	}
	if err := p.passageRepository.AddPassages(ctx, passages...); err != nil {
		return 0, err
	}
	for _, passage := range passages {
		freqs := core.TermFrequencies(passage.Text)
		if len(freqs) == 0 {
			continue
		}
		if err := p.lexicalRepository.AddDocumentTerms(ctx, passage.Id, freqs); err != nil {
			return 0, err
		}
	}

	p.logger.Info("indexed sections",
		"sections", len(sections),
		"passages", len(passages))
	return len(passages), nil
}

// embedAll fills passage vectors in place, batch by batch over the pool.
func (p *Pipeline) embedAll(ctx context.Context, passages []*core.Passage) {
	var wg sync.WaitGroup

	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch := passages[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			p.embedBatch(ctx, batch)
		})
		if submitErr != nil {
			// Pool released or overloaded; embed on the caller.
			p.embedBatch(ctx, batch)
			wg.Done()
		}
	}

	wg.Wait()
}

func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.Passage) {
	texts := make([]string, len(batch))
	for i, passage := range batch {
		texts[i] = passage.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		p.logger.Warn("embedding batch failed, passages stay lexical-only",
			"passages", len(batch), "err", err)
		return
	}
	if len(vectors) != len(batch) {
		p.logger.Warn("embedding result mismatch, passages stay lexical-only",
			"expected", len(batch), "received", len(vectors))
		return
	}

	for i, vector := range vectors {
		batch[i].Vector = vector
	}
}

// DeleteFile removes every passage of a source file along with its term
// postings and index entries. Deleting a file that was never indexed is
// not an error.
func (p *Pipeline) DeleteFile(ctx context.Context, file string) (int, error) {
	passages, err := p.passageRepository.GetPassagesByFile(ctx, file)
	if err != nil {
		return 0, err
	}
	if len(passages) == 0 {
		return 0, nil
	}

	ids := make([]core.ID, len(passages))
	for i, passage := range passages {
		ids[i] = passage.Id

		freqs := core.TermFrequencies(passage.Text)
		if len(freqs) == 0 {
			continue
		}
		terms := make([]string, 0, len(freqs))
		for term := range freqs {
			terms = append(terms, term)
		}
		if err := p.lexicalRepository.RemoveDocumentTerms(ctx, passage.Id, terms); err != nil {
			return 0, err
		}
	}

	if err := p.passageRepository.DeletePassages(ctx, ids...); err != nil {
		return 0, err
	}

	p.logger.Info("deleted file from index", "file", file, "passages", len(ids))
	return len(ids), nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
