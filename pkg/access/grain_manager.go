package access

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// GrainManager owns the top-level authorization namespaces
type GrainManager struct {
	store     storage.Store[Grain]
	validator *GrainValidator
	logger    *zap.Logger
}

func NewGrainManager(s storage.Store[Grain], v *GrainValidator) (*GrainManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &GrainManager{
		store:     s,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *GrainManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[grain]")
	}

	m.logger = logger

	return nil
}

// AddGrain validates and persists a new grain
func (m *GrainManager) AddGrain(ctx context.Context, g Grain) (Grain, error) {
	if err := m.validator.ValidateNew(ctx, g); err != nil {
		return g, err
	}

	stored, err := m.store.Add(ctx, g.Key(), g)
	if err != nil {
		return g, errors.Wrap(err, "failed to store grain")
	}

	return stored, nil
}

// GrainByName returns an active grain by its name
func (m *GrainManager) GrainByName(ctx context.Context, name string) (Grain, error) {
	g, err := m.store.Get(ctx, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		if storage.IsNotFound(err) {
			return g, ErrGrainNotFound
		}

		return g, err
	}

	return g, nil
}

// UpdateGrain persists changes to an existing grain
func (m *GrainManager) UpdateGrain(ctx context.Context, g Grain) (Grain, error) {
	stored, err := m.store.Update(ctx, g.Key(), g)
	if err != nil {
		return g, errors.Wrap(err, "failed to update grain")
	}

	return stored, nil
}

// DeleteGrain retires a grain
func (m *GrainManager) DeleteGrain(ctx context.Context, name string) error {
	return m.store.Delete(ctx, strings.ToLower(strings.TrimSpace(name)))
}

// Grains produces all active grains
func (m *GrainManager) Grains(ctx context.Context) ([]Grain, error) {
	gs := make([]Grain, 0)

	for g, err := range m.store.GetAll(ctx) {
		if err != nil {
			return nil, err
		}

		gs = append(gs, g)
	}

	return gs, nil
}
