package storage

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/audit"
)

// auditedStore emits an audit event after every successful mutation
// of the store it wraps; reads pass through untouched
type auditedStore[T any] struct {
	inner  Store[T]
	sink   audit.Sink
	kind   string
	logger *zap.Logger
}

// NewAuditedStore wraps a given store with audit event emission;
// kind names the entity type carried on every emitted event
func NewAuditedStore[T any](inner Store[T], sink audit.Sink, kind string, logger *zap.Logger) (Store[T], error) {
	if inner == nil {
		return nil, ErrNilStore
	}

	if sink == nil {
		return nil, ErrNilSink
	}

	if logger != nil {
		logger = logger.Named("[audit_store]")
	}

	s := &auditedStore[T]{
		inner:  inner,
		sink:   sink,
		kind:   kind,
		logger: logger,
	}

	return s, nil
}

// emit assembles and writes an audit event; a sink failure never fails
// a write that has already been confirmed by the inner store
func (s *auditedStore[T]) emit(ctx context.Context, name, key string, before, after interface{}) {
	e, err := audit.NewEvent(name, s.kind, key, Actor(ctx), before, after)
	if err == nil {
		err = s.sink.WriteEvent(ctx, e)
	}

	if err != nil && s.logger != nil {
		s.logger.Warn(
			"failed to emit audit event",
			zap.String("event", name),
			zap.String("entity_kind", s.kind),
			zap.String("entity_id", key),
			zap.Error(err),
		)
	}
}

func (s *auditedStore[T]) Add(ctx context.Context, key string, v T) (T, error) {
	stored, err := s.inner.Add(ctx, key, v)
	if err != nil {
		return stored, err
	}

	s.emit(ctx, audit.EventCreated, key, nil, stored)

	return stored, nil
}

func (s *auditedStore[T]) Get(ctx context.Context, key string) (T, error) {
	return s.inner.Get(ctx, key)
}

func (s *auditedStore[T]) Update(ctx context.Context, key string, v T) (T, error) {
	// pre-write state for the changelog; best effort
	var before interface{}
	if prev, err := s.inner.Get(ctx, key); err == nil {
		before = prev
	}

	stored, err := s.inner.Update(ctx, key, v)
	if err != nil {
		return stored, err
	}

	s.emit(ctx, audit.EventUpdated, key, before, stored)

	return stored, nil
}

func (s *auditedStore[T]) Delete(ctx context.Context, key string) error {
	var before interface{}
	if prev, err := s.inner.Get(ctx, key); err == nil {
		before = prev
	}

	if err := s.inner.Delete(ctx, key); err != nil {
		return err
	}

	s.emit(ctx, audit.EventDeleted, key, before, nil)

	return nil
}

func (s *auditedStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *auditedStore[T]) GetAll(ctx context.Context) iter.Seq2[T, error] {
	return s.inner.GetAll(ctx)
}
