package access

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// PermissionManager owns the permission catalog
type PermissionManager struct {
	store     storage.Store[Permission]
	validator *PermissionValidator
	logger    *zap.Logger
}

func NewPermissionManager(s storage.Store[Permission], v *PermissionValidator) (*PermissionManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &PermissionManager{
		store:     s,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *PermissionManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[permission]")
	}

	m.logger = logger

	return nil
}

// AddPermission validates and persists a new permission
func (m *PermissionManager) AddPermission(ctx context.Context, p Permission) (Permission, error) {
	if err := m.validator.ValidateNew(ctx, p); err != nil {
		return p, err
	}

	stored, err := m.store.Add(ctx, p.Key(), p)
	if err != nil {
		return p, errors.Wrap(err, "failed to store permission")
	}

	return stored, nil
}

// PermissionByKey returns an active permission by its identity key
func (m *PermissionManager) PermissionByKey(ctx context.Context, key string) (Permission, error) {
	p, err := m.store.Get(ctx, strings.ToLower(key))
	if err != nil {
		if storage.IsNotFound(err) {
			return p, ErrPermissionNotFound
		}

		return p, err
	}

	return p, nil
}

// DeletePermission retires a permission; deleting an already retired
// permission fails with the storage NotFound error
func (m *PermissionManager) DeletePermission(ctx context.Context, key string) error {
	return m.store.Delete(ctx, strings.ToLower(key))
}

// PermissionsByScope produces active permissions bound to a given
// grain/securableItem pair
func (m *PermissionManager) PermissionsByScope(ctx context.Context, grain, securableItem string) ([]Permission, error) {
	ps := make([]Permission, 0)

	for p, err := range m.store.GetAll(ctx) {
		if err != nil {
			return nil, err
		}

		if strings.EqualFold(p.Grain, grain) && strings.EqualFold(p.SecurableItem, securableItem) {
			ps = append(ps, p)
		}
	}

	return ps, nil
}
