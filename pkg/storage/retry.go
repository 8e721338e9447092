package storage

import (
	"context"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the exponential backoff applied to
// remote-backend mutations
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy mirrors the backend defaults: up to 4 retries
// starting at 100ms
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      4,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// retryingStore re-attempts failed mutations of the store it wraps.
// Only backend faults are retried; NotFound/AlreadyExists and other
// expected outcomes surface immediately. Reads are never retried.
type retryingStore[T any] struct {
	inner  Store[T]
	policy RetryPolicy
}

// NewRetryingStore wraps a given store with a uniform
// exponential-backoff retry policy on mutations
func NewRetryingStore[T any](inner Store[T], policy RetryPolicy) (Store[T], error) {
	if inner == nil {
		return nil, ErrNilStore
	}

	s := &retryingStore[T]{
		inner:  inner,
		policy: policy,
	}

	return s, nil
}

func (s *retryingStore[T]) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.InitialInterval
	b.MaxInterval = s.policy.MaxInterval

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}

		if IsBackendFault(err) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(b, s.policy.MaxRetries), ctx))
}

func (s *retryingStore[T]) Add(ctx context.Context, key string, v T) (stored T, err error) {
	err = s.retry(ctx, func() error {
		stored, err = s.inner.Add(ctx, key, v)
		return err
	})

	return stored, err
}

func (s *retryingStore[T]) Get(ctx context.Context, key string) (T, error) {
	return s.inner.Get(ctx, key)
}

func (s *retryingStore[T]) Update(ctx context.Context, key string, v T) (stored T, err error) {
	err = s.retry(ctx, func() error {
		stored, err = s.inner.Update(ctx, key, v)
		return err
	})

	return stored, err
}

func (s *retryingStore[T]) Delete(ctx context.Context, key string) error {
	return s.retry(ctx, func() error {
		return s.inner.Delete(ctx, key)
	})
}

func (s *retryingStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *retryingStore[T]) GetAll(ctx context.Context) iter.Seq2[T, error] {
	return s.inner.GetAll(ctx)
}
