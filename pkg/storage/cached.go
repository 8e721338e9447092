package storage

import (
	"context"
	"iter"
	"strconv"

	"github.com/allegro/bigcache"
	"github.com/cespare/xxhash"
	"github.com/pkg/errors"
)

// cachedStore is a cache-aside wrapper around any store; entries are
// invalidated strictly after the inner write has been confirmed, so a
// hit can never reflect a write the inner store has rejected
type cachedStore[T any] struct {
	inner   Store[T]
	backend *bigcache.BigCache
	kind    string
}

// NewCachedStore wraps a given store with a bigcache-backed cache
func NewCachedStore[T any](inner Store[T], kind string, config bigcache.Config) (Store[T], error) {
	if inner == nil {
		return nil, ErrNilStore
	}

	backend, err := bigcache.NewBigCache(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize cache backend")
	}

	s := &cachedStore[T]{
		inner:   inner,
		backend: backend,
		kind:    kind,
	}

	return s, nil
}

// cacheKey produces a compact cache key from the entity kind
// and the storage key
func (s *cachedStore[T]) cacheKey(key string) string {
	return strconv.FormatUint(xxhash.Sum64String(s.kind+"\x00"+key), 16)
}

func (s *cachedStore[T]) put(key string, v T) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}

	_ = s.backend.Set(s.cacheKey(key), payload)
}

func (s *cachedStore[T]) invalidate(key string) {
	_ = s.backend.Delete(s.cacheKey(key))
}

func (s *cachedStore[T]) Add(ctx context.Context, key string, v T) (T, error) {
	stored, err := s.inner.Add(ctx, key, v)
	if err != nil {
		return stored, err
	}

	s.put(key, stored)

	return stored, nil
}

func (s *cachedStore[T]) Get(ctx context.Context, key string) (v T, err error) {
	if payload, err := s.backend.Get(s.cacheKey(key)); err == nil {
		if err = json.Unmarshal(payload, &v); err == nil {
			return v, nil
		}

		// an undecodable entry must not shadow the store
		s.invalidate(key)
	}

	v, err = s.inner.Get(ctx, key)
	if err != nil {
		return v, err
	}

	s.put(key, v)

	return v, nil
}

func (s *cachedStore[T]) Update(ctx context.Context, key string, v T) (T, error) {
	stored, err := s.inner.Update(ctx, key, v)
	if err != nil {
		return stored, err
	}

	// invalidating only after the inner write has succeeded
	s.invalidate(key)

	return stored, nil
}

func (s *cachedStore[T]) Delete(ctx context.Context, key string) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}

	s.invalidate(key)

	return nil
}

func (s *cachedStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *cachedStore[T]) GetAll(ctx context.Context) iter.Seq2[T, error] {
	return s.inner.GetAll(ctx)
}
