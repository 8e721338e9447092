package access

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// GranularManager owns the per-subject override records
type GranularManager struct {
	store     storage.Store[GranularPermission]
	validator *GranularValidator
	logger    *zap.Logger
}

func NewGranularManager(s storage.Store[GranularPermission], v *GranularValidator) (*GranularManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &GranularManager{
		store:     s,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *GranularManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[granular]")
	}

	m.logger = logger

	return nil
}

// SetGranularPermission creates or replaces the single override
// record held by a subject
func (m *GranularManager) SetGranularPermission(ctx context.Context, gp GranularPermission) (GranularPermission, error) {
	if err := m.validator.ValidateNew(ctx, gp); err != nil {
		return gp, err
	}

	stored, err := m.store.Add(ctx, gp.Key(), gp)
	if err == nil {
		return stored, nil
	}

	if !storage.IsAlreadyExists(err) {
		return gp, errors.Wrap(err, "failed to store granular permission record")
	}

	stored, err = m.store.Update(ctx, gp.Key(), gp)
	if err != nil {
		return gp, errors.Wrap(err, "failed to replace granular permission record")
	}

	return stored, nil
}

// GranularBySubject returns the override record held by a subject
func (m *GranularManager) GranularBySubject(ctx context.Context, subjectID, identityProvider string) (GranularPermission, error) {
	return m.store.Get(ctx, SubjectKey(subjectID, identityProvider))
}

// DeleteGranular retires a subject's override record
func (m *GranularManager) DeleteGranular(ctx context.Context, subjectID, identityProvider string) error {
	return m.store.Delete(ctx, SubjectKey(subjectID, identityProvider))
}
