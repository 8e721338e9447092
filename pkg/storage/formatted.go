package storage

import (
	"context"
	"iter"
)

// Formatter transforms a caller-supplied logical id into the
// storage-layer key; pluggable per deployment
type Formatter interface {
	Format(rawID string) string
}

// FormatterFunc adapts a plain function to the Formatter contract
type FormatterFunc func(rawID string) string

func (f FormatterFunc) Format(rawID string) string {
	return f(rawID)
}

// formattedStore applies a key formatter to every operation
// before delegating to the store it wraps
type formattedStore[T any] struct {
	inner     Store[T]
	formatter Formatter
}

// NewFormattedStore wraps a given store with key formatting
func NewFormattedStore[T any](inner Store[T], formatter Formatter) (Store[T], error) {
	if inner == nil {
		return nil, ErrNilStore
	}

	if formatter == nil {
		return nil, ErrNilFormatter
	}

	s := &formattedStore[T]{
		inner:     inner,
		formatter: formatter,
	}

	return s, nil
}

func (s *formattedStore[T]) Add(ctx context.Context, key string, v T) (T, error) {
	return s.inner.Add(ctx, s.formatter.Format(key), v)
}

func (s *formattedStore[T]) Get(ctx context.Context, key string) (T, error) {
	return s.inner.Get(ctx, s.formatter.Format(key))
}

func (s *formattedStore[T]) Update(ctx context.Context, key string, v T) (T, error) {
	return s.inner.Update(ctx, s.formatter.Format(key), v)
}

func (s *formattedStore[T]) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.formatter.Format(key))
}

func (s *formattedStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, s.formatter.Format(key))
}

func (s *formattedStore[T]) GetAll(ctx context.Context) iter.Seq2[T, error] {
	return s.inner.GetAll(ctx)
}
