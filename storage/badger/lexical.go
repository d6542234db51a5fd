package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// LexicalIndexRepository implements storage.LexicalIndexRepository for BadgerDB.
// Postings are stored one key per (term, passage) pair so that a passage's
// entries can be removed without rewriting whole posting lists.
type LexicalIndexRepository struct {
	backend *Backend
}

var _ storage.LexicalIndexRepository = (*LexicalIndexRepository)(nil)

// NewLexicalIndexRepository creates a new LexicalIndexRepository.
func NewLexicalIndexRepository(backend *Backend) (storage.LexicalIndexRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &LexicalIndexRepository{backend: backend}, nil
}

// Close is a no-op; the shared backend is closed by its owner.
func (r *LexicalIndexRepository) Close() error {
	return nil
}

// AddDocumentTerms records the term frequencies of one passage.
func (r *LexicalIndexRepository) AddDocumentTerms(ctx context.Context, id core.ID, termFreqs map[string]int) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for term, freq := range termFreqs {
			if term == "" || freq <= 0 {
				continue
			}
			posting := core.Posting{PassageId: id, TermFreq: freq}
			if err := tx.Set(makePostingKey(term, id), storage.MarshalPosting(posting)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// RemoveDocumentTerms removes a passage's postings for the given terms.
func (r *LexicalIndexRepository) RemoveDocumentTerms(ctx context.Context, id core.ID, terms []string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, term := range terms {
			if term == "" {
				continue
			}
			if err := tx.Delete(makePostingKey(term, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// IteratePostings visits every posting in term order.
func (r *LexicalIndexRepository) IteratePostings(ctx context.Context, fn func(term string, posting core.Posting) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(postingPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := iter.Item()
			term, err := parsePostingKey(item.Key())
			if err != nil {
				return err
			}

			var posting core.Posting
			if err := item.Value(func(val []byte) error {
				var err error
				posting, err = storage.UnmarshalPosting(val)
				return err
			}); err != nil {
				return err
			}

			if err := fn(term, posting); err != nil {
				return err
			}
		}
		return nil
	}, false)
}
