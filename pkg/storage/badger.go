package storage

import (
	"bytes"
	"context"
	"iter"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/agubarev/perimeter/pkg/util/timestamp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// badgerStore is a persistent KV backend; records of each entity kind
// live under their own key namespace inside a shared database
type badgerStore[T any] struct {
	db     *badger.DB
	bucket []byte
}

// NewBadgerStore returns a store persisting records to a given
// badger database under a given bucket prefix
func NewBadgerStore[T any](db *badger.DB, bucket string) (Store[T], error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	if bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	s := &badgerStore[T]{
		db:     db,
		bucket: []byte(bucket + "/"),
	}

	return s, nil
}

func (s *badgerStore[T]) physicalKey(key string) []byte {
	return append(s.bucket[:len(s.bucket):len(s.bucket)], key...)
}

// fetch reads a physical record regardless of its soft-delete state
func (s *badgerStore[T]) fetch(key string) (v T, found bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.physicalKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}

			return err
		}

		payload, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		if err = json.Unmarshal(payload, &v); err != nil {
			return errors.Wrap(err, "failed to unmarshal stored record")
		}

		found = true

		return nil
	})

	if err != nil {
		return v, false, errors.Wrapf(ErrCouldNotComplete, "badger read failed: %s", err)
	}

	return v, found, nil
}

func (s *badgerStore[T]) put(key string, v T) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.physicalKey(key), payload)
	})

	if err != nil {
		return errors.Wrapf(ErrCouldNotComplete, "badger write failed: %s", err)
	}

	return nil
}

func (s *badgerStore[T]) Add(ctx context.Context, key string, v T) (T, error) {
	if key == "" {
		return v, ErrEmptyKey
	}

	existing, found, err := s.fetch(key)
	if err != nil {
		return v, err
	}

	if found && !isDeleted(any(&existing)) {
		return v, ErrAlreadyExists
	}

	stampCreated(ctx, any(&v))

	return v, s.put(key, v)
}

func (s *badgerStore[T]) Get(ctx context.Context, key string) (v T, err error) {
	if key == "" {
		return v, ErrEmptyKey
	}

	v, found, err := s.fetch(key)
	if err != nil {
		return v, err
	}

	if !found || isDeleted(any(&v)) {
		return v, ErrNotFound
	}

	return v, nil
}

func (s *badgerStore[T]) Update(ctx context.Context, key string, v T) (T, error) {
	if key == "" {
		return v, ErrEmptyKey
	}

	_, found, err := s.fetch(key)
	if err != nil {
		return v, err
	}

	if !found {
		return v, ErrNotFound
	}

	stampModified(ctx, any(&v))

	return v, s.put(key, v)
}

func (s *badgerStore[T]) Delete(ctx context.Context, key string) error {
	v, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	if sd, ok := any(&v).(SoftDeletable); ok {
		sd.MarkDeleted(Actor(ctx), timestamp.Now())

		_, err = s.Update(ctx, key, v)

		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.physicalKey(key))
	})

	if err != nil {
		return errors.Wrapf(ErrCouldNotComplete, "badger delete failed: %s", err)
	}

	return nil
}

func (s *badgerStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	v, found, err := s.fetch(key)
	if err != nil {
		return false, err
	}

	return found && !isDeleted(any(&v)), nil
}

func (s *badgerStore[T]) GetAll(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = s.bucket

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(s.bucket); it.ValidForPrefix(s.bucket); it.Next() {
				payload, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}

				var v T
				if err = json.Unmarshal(payload, &v); err != nil {
					return errors.Wrap(err, "failed to unmarshal stored record")
				}

				if isDeleted(any(&v)) {
					continue
				}

				if !yield(v, nil) {
					return nil
				}
			}

			return nil
		})

		if err != nil {
			var zero T
			yield(zero, errors.Wrapf(ErrCouldNotComplete, "badger iteration failed: %s", err))
		}
	}
}

// ScanPrefix enumerates physical records whose keys share a given
// prefix, including the soft-deleted ones
func (s *badgerStore[T]) ScanPrefix(ctx context.Context, prefix string) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		fullPrefix := s.physicalKey(prefix)

		_ = s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = fullPrefix

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(fullPrefix); it.ValidForPrefix(fullPrefix); it.Next() {
				item := it.Item()

				payload, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}

				var v T
				if err = json.Unmarshal(payload, &v); err != nil {
					return err
				}

				key := string(bytes.TrimPrefix(item.Key(), s.bucket))
				if !yield(key, v) {
					return nil
				}
			}

			return nil
		})
	}
}
