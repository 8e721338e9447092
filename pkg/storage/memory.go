package storage

import (
	"context"
	"iter"
	"strings"
	"sync"

	"github.com/agubarev/perimeter/pkg/util/timestamp"
)

// memoryStore is the default in-memory backend; the existence check
// and the write of every Add/Update happen under one lock, and updates
// replace the whole record, so concurrent writers to the same key
// serialize with the later write winning
type memoryStore[T any] struct {
	records map[string]T
	sync.RWMutex
}

// NewMemoryStore returns an initialized store that keeps
// everything in memory
func NewMemoryStore[T any]() Store[T] {
	return &memoryStore[T]{
		records: make(map[string]T),
	}
}

func (s *memoryStore[T]) Add(ctx context.Context, key string, v T) (T, error) {
	if key == "" {
		return v, ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	// an active record blocks the key; a retired record is replaced
	if rec, ok := s.records[key]; ok {
		if !isDeleted(any(&rec)) {
			return v, ErrAlreadyExists
		}
	}

	stampCreated(ctx, any(&v))

	s.records[key] = v

	return v, nil
}

func (s *memoryStore[T]) Get(ctx context.Context, key string) (v T, err error) {
	if key == "" {
		return v, ErrEmptyKey
	}

	s.RLock()
	rec, ok := s.records[key]
	s.RUnlock()

	if !ok || isDeleted(any(&rec)) {
		return v, ErrNotFound
	}

	return rec, nil
}

func (s *memoryStore[T]) Update(ctx context.Context, key string, v T) (T, error) {
	if key == "" {
		return v, ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.records[key]; !ok {
		return v, ErrNotFound
	}

	stampModified(ctx, any(&v))

	s.records[key] = v

	return v, nil
}

func (s *memoryStore[T]) Delete(ctx context.Context, key string) error {
	v, err := s.Get(ctx, key)
	if err != nil {
		return err
	}

	// retiring soft-deletable records via a regular update,
	// removing the rest physically
	if sd, ok := any(&v).(SoftDeletable); ok {
		sd.MarkDeleted(Actor(ctx), timestamp.Now())

		_, err = s.Update(ctx, key, v)

		return err
	}

	s.Lock()
	delete(s.records, key)
	s.Unlock()

	return nil
}

func (s *memoryStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	s.RLock()
	rec, ok := s.records[key]
	s.RUnlock()

	return ok && !isDeleted(any(&rec)), nil
}

// GetAll iterates over a snapshot of keys; values are re-read per key,
// so the sequence is weakly consistent under concurrent mutation
func (s *memoryStore[T]) GetAll(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		s.RLock()
		keys := make([]string, 0, len(s.records))
		for key := range s.records {
			keys = append(keys, key)
		}
		s.RUnlock()

		for _, key := range keys {
			s.RLock()
			rec, ok := s.records[key]
			s.RUnlock()

			if !ok || isDeleted(any(&rec)) {
				continue
			}

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// ScanPrefix enumerates physical records whose keys share a given
// prefix, including the soft-deleted ones
func (s *memoryStore[T]) ScanPrefix(ctx context.Context, prefix string) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		s.RLock()
		keys := make([]string, 0)
		for key := range s.records {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
		s.RUnlock()

		for _, key := range keys {
			s.RLock()
			rec, ok := s.records[key]
			s.RUnlock()

			if !ok {
				continue
			}

			if !yield(key, rec) {
				return
			}
		}
	}
}
