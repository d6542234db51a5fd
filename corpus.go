// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docsearch

import (
	"context"
	"log/slog"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/ai/openai"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/retrieve"
	"github.com/poiesic/docsearch/storage"
	"github.com/poiesic/docsearch/storage/badger"
)

// Corpus bundles the storage backend, repositories, and AI provider behind
// one handle. It is the entry point for embedding docsearch in a program.
type Corpus struct {
	backend     *badger.Backend
	passageRepo storage.PassageRepository
	lexicalRepo storage.LexicalIndexRepository
	provider    ai.Provider
	logger      *slog.Logger
}

// CorpusOption configures a Corpus.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI service configuration used to build the default
// OpenAI-compatible provider.
func WithAIConfig(config *ai.Config) CorpusOption {
	return func(o *corpusOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider supplies a pre-built AI provider instead of the default
// OpenAI-compatible one. Useful for tests and custom backends.
func WithAIProvider(provider ai.Provider) CorpusOption {
	return func(o *corpusOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps the index in memory instead of on disk.
func WithInMemoryStorage() CorpusOption {
	return func(o *corpusOptions) {
		o.inMemory = true
	}
}

// OpenCorpus opens (or creates) a corpus at the given path.
func OpenCorpus(filePath string, opts ...CorpusOption) (*Corpus, error) {
	// Apply options
	options := &corpusOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	// Create passage repository
	passageRepo, err := badger.NewPassageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create lexical index repository
	lexicalRepo, err := badger.NewLexicalIndexRepository(backend)
	if err != nil {
		passageRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			lexicalRepo.Close()
			passageRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Corpus{
		backend:     backend,
		passageRepo: passageRepo,
		lexicalRepo: lexicalRepo,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (c *Corpus) Close() error {
	// Close AI provider first
	if err := c.provider.Close(); err != nil {
		c.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := c.lexicalRepo.Close(); err != nil {
		c.logger.Error("error closing lexical index repository", "err", err)
		return err
	}
	if err := c.passageRepo.Close(); err != nil {
		c.logger.Error("error closing passage repository", "err", err)
		return err
	}

	// Close backend
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (c *Corpus) PassageRepository() storage.PassageRepository {
	return c.passageRepo
}

func (c *Corpus) LexicalIndexRepository() storage.LexicalIndexRepository {
	return c.lexicalRepo
}

// NewPipeline creates an indexing pipeline over the corpus.
func (c *Corpus) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(c.passageRepo, c.lexicalRepo, c.provider, opts...)
}

// NewEngine creates a retrieval engine over the corpus and loads its first
// snapshot.
func (c *Corpus) NewEngine(ctx context.Context, opts ...retrieve.Option) (*retrieve.Engine, error) {
	engine, err := retrieve.NewEngine(c.passageRepo, c.lexicalRepo, c.provider, opts...)
	if err != nil {
		return nil, err
	}
	if err := engine.Reload(ctx); err != nil {
		return nil, err
	}
	return engine, nil
}
