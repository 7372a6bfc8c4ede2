// Package badgerstore keeps reels and option sets in an embedded badger
// database. It backs the single-node deployment and the domain tests.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"papermill_reel_tracker/models"
	"papermill_reel_tracker/reel"
)

const (
	reelPrefix   = "reel/"
	optionPrefix = "opt/"

	maxConflictRetries = 8
)

type Store struct {
	db *badger.DB
}

// Open opens the database at path. An empty path gives an in-memory store.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func reelKey(id string) []byte              { return []byte(reelPrefix + id) }
func optionKey(dim models.Dimension) []byte { return []byte(optionPrefix + string(dim)) }

// update retries fn when another writer committed a conflicting key first.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

func notFound(id string) error { return fmt.Errorf("reel %s: %w", id, reel.ErrNotFound) }

func (s *Store) InsertReel(ctx context.Context, r *models.Reel) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(reelKey(r.ID)); err == nil {
			return fmt.Errorf("reel %s already exists", r.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setJSON(txn, reelKey(r.ID), r)
	})
}

func (s *Store) GetReel(ctx context.Context, id string) (*models.Reel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var r models.Reel
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, reelKey(id), &r)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) ListReels(ctx context.Context, f reel.Filter) ([]models.Reel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []models.Reel{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(reelPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r models.Reel
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			if f.Match(&r) {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reel.SortReels(out)
	return out, nil
}

// PatchReel is a read-modify-write inside one badger transaction. A
// concurrent commit on the same key makes it start over from a fresh read.
func (s *Store) PatchReel(ctx context.Context, id string, p models.Patch, now time.Time) (*models.Reel, error) {
	var out models.Reel
	err := s.update(ctx, func(txn *badger.Txn) error {
		var r models.Reel
		if err := getJSON(txn, reelKey(id), &r); err != nil {
			return err
		}
		p.Apply(&r, now)
		if err := setJSON(txn, reelKey(id), &r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteReel(ctx context.Context, id string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(reelKey(id)); err != nil {
			return err
		}
		return txn.Delete(reelKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(id)
	}
	return err
}

func (s *Store) Options(ctx context.Context, dim models.Dimension) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var opt models.ReelOption
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, optionKey(dim), &opt)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []string(opt.Values), nil
}

func (s *Store) AppendOption(ctx context.Context, dim models.Dimension, value string) (bool, error) {
	var added bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		added = false
		opt := models.ReelOption{Dimension: dim}
		if err := getJSON(txn, optionKey(dim), &opt); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if slices.Contains(opt.Values, value) {
			return nil
		}
		opt.Values = append(opt.Values, value)
		opt.UpdatedAt = time.Now().UTC()
		added = true
		return setJSON(txn, optionKey(dim), &opt)
	})
	return added, err
}

func (s *Store) RemoveOption(ctx context.Context, dim models.Dimension, value string) (bool, error) {
	var removed bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		removed = false
		var opt models.ReelOption
		if err := getJSON(txn, optionKey(dim), &opt); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		i := slices.Index(opt.Values, value)
		if i < 0 {
			return nil
		}
		opt.Values = slices.Delete(opt.Values, i, i+1)
		opt.UpdatedAt = time.Now().UTC()
		removed = true
		return setJSON(txn, optionKey(dim), &opt)
	})
	return removed, err
}

var _ reel.Store = (*Store)(nil)
