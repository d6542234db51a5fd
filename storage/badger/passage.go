package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// PassageRepository implements storage.PassageRepository for BadgerDB.
type PassageRepository struct {
	backend *Backend
}

var _ storage.PassageRepository = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) (storage.PassageRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &PassageRepository{backend: backend}, nil
}

// Close is a no-op; the shared backend is closed by its owner.
func (r *PassageRepository) Close() error {
	return nil
}

// AddPassages persists passages along with their section and file indexes.
func (r *PassageRepository) AddPassages(ctx context.Context, passages ...*core.Passage) error {
	for _, passage := range passages {
		if err := core.ValidatePassage(passage); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, passage := range passages {
			key := makePassageKey(passage.Id)
			if err := tx.Set(key, storage.MarshalPassage(passage)); err != nil {
				return err
			}

			sectionKey := makeSectionKey(passage.SectionId, passage.SequenceIndex)
			if err := tx.Set(sectionKey, storage.MarshalID(passage.Id)); err != nil {
				return err
			}

			fileKey := makeFileKey(passage.File, passage.Id)
			if err := tx.Set(fileKey, storage.MarshalID(passage.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPassage retrieves a single passage by ID.
func (r *PassageRepository) GetPassage(ctx context.Context, id core.ID) (*core.Passage, error) {
	var result *core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readPassage(tx, makePassageKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPassages retrieves multiple passages by their IDs.
// Missing passages are skipped rather than failing the batch.
func (r *PassageRepository) GetPassages(ctx context.Context, ids ...core.ID) ([]*core.Passage, error) {
	var result []*core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			passage, err := r.readPassage(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			if passage != nil {
				result = append(result, passage)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetNeighbors returns the run of passages around the given sequence position
// within one section, ordered by sequence index. Sequence indexes need not be
// contiguous; adjacency is positional within the section's ordered entries.
func (r *PassageRepository) GetNeighbors(ctx context.Context, sectionID core.ID, sequenceIndex, radius int) ([]*core.Passage, error) {
	if radius < 0 {
		return nil, storage.ErrInvalidQuery
	}

	var result []*core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect the section's passage ids in reading order.
		prefix := makePartialSectionKey(sectionID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		var ids []core.ID
		anchorPos := -1

		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			var id core.ID
			if err := item.Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			key := item.Key()
			seq := int(binary.BigEndian.Uint64(key[len(key)-8:]))
			if seq == sequenceIndex {
				anchorPos = len(ids)
			}
			ids = append(ids, id)
		}
		iter.Close()

		if anchorPos == -1 {
			return storage.ErrNotFound
		}

		lo := max(anchorPos-radius, 0)
		hi := min(anchorPos+radius, len(ids)-1)
		for _, id := range ids[lo : hi+1] {
			passage, err := r.readPassage(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			if passage != nil {
				result = append(result, passage)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetPassagesByFile retrieves all passages originating from a source file.
func (r *PassageRepository) GetPassagesByFile(ctx context.Context, file string) ([]*core.Passage, error) {
	var result []*core.Passage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialFileKey(file)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			passage, err := r.readPassage(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			// Hash collisions on the file prefix are possible; verify the path.
			if passage != nil && passage.File == file {
				result = append(result, passage)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(result, func(a, b *core.Passage) int {
		if a.SectionId != b.SectionId {
			if a.SectionId < b.SectionId {
				return -1
			}
			return 1
		}
		return a.SequenceIndex - b.SequenceIndex
	})
	return result, nil
}

// DeletePassages removes passages and their index entries.
func (r *PassageRepository) DeletePassages(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makePassageKey(id)

			// Read the record to locate its index entries.
			passage, err := r.readPassage(tx, key)
			if err != nil {
				return err
			}
			if passage == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeSectionKey(passage.SectionId, passage.SequenceIndex)); err != nil {
				return err
			}
			if err := tx.Delete(makeFileKey(passage.File, passage.Id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// IteratePassages visits every stored passage in ascending ID order.
func (r *PassageRepository) IteratePassages(ctx context.Context, fn func(*core.Passage) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(passagePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var passage *core.Passage
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				passage, err = storage.UnmarshalPassage(val)
				return err
			}); err != nil {
				return err
			}
			if passage == nil {
				continue
			}
			if err := fn(passage); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readPassage reads a passage by key within a transaction.
// Returns (nil, nil) when the key doesn't exist.
func (r *PassageRepository) readPassage(tx *badger.Txn, key []byte) (*core.Passage, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var passage *core.Passage
	err = item.Value(func(val []byte) error {
		var err error
		passage, err = storage.UnmarshalPassage(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return passage, nil
}
