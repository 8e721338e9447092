package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// ItemManager owns the per-grain securable item trees and keeps the
// parent/child bookkeeping consistent
type ItemManager struct {
	store     storage.Store[SecurableItem]
	validator *ItemValidator
	logger    *zap.Logger
}

func NewItemManager(s storage.Store[SecurableItem], v *ItemValidator) (*ItemManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &ItemManager{
		store:     s,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *ItemManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[item]")
	}

	m.logger = logger

	return nil
}

// AddTopLevelItem roots a new subtree for a grain
func (m *ItemManager) AddTopLevelItem(ctx context.Context, si SecurableItem) (SecurableItem, error) {
	si.Path = si.Name

	if err := m.validator.ValidateNew(ctx, si); err != nil {
		return si, err
	}

	stored, err := m.store.Add(ctx, si.Key(), si)
	if err != nil {
		return si, errors.Wrap(err, "failed to store securable item")
	}

	return stored, nil
}

// AddChildItem attaches a new item under an existing parent; the name
// only has to be unique among its siblings
func (m *ItemManager) AddChildItem(ctx context.Context, parentKey string, si SecurableItem) (SecurableItem, error) {
	parent, err := m.ItemByKey(ctx, parentKey)
	if err != nil {
		return si, err
	}

	if !strings.EqualFold(parent.Grain, si.Grain) {
		return si, errors.Wrapf(
			ErrIncompatibleState,
			"item %s cannot be attached under grain %s", si.Name, parent.Grain,
		)
	}

	si.Path = fmt.Sprintf("%s/%s", parent.Path, si.Name)

	if parent.HasChild(si.Path) {
		return si, storage.ErrAlreadyExists
	}

	if err = m.validator.ValidateNew(ctx, si); err != nil {
		return si, err
	}

	stored, err := m.store.Add(ctx, si.Key(), si)
	if err != nil {
		return si, errors.Wrap(err, "failed to store securable item")
	}

	parent.ChildPaths = append(parent.ChildPaths, stored.Path)
	if _, err = m.store.Update(ctx, parent.Key(), parent); err != nil {
		return stored, errors.Wrap(err, "failed to update parent item")
	}

	return stored, nil
}

// ItemByKey returns an active securable item by its "{grain}/{path}" key
func (m *ItemManager) ItemByKey(ctx context.Context, key string) (SecurableItem, error) {
	si, err := m.store.Get(ctx, strings.ToLower(key))
	if err != nil {
		if storage.IsNotFound(err) {
			return si, ErrItemNotFound
		}

		return si, err
	}

	return si, nil
}

// DeleteItem retires a securable item; children are retired with it
func (m *ItemManager) DeleteItem(ctx context.Context, key string) error {
	si, err := m.ItemByKey(ctx, key)
	if err != nil {
		return err
	}

	for _, childPath := range si.ChildPaths {
		childKey := strings.ToLower(fmt.Sprintf("%s/%s", si.Grain, childPath))

		if err = m.DeleteItem(ctx, childKey); err != nil && err != ErrItemNotFound {
			return err
		}
	}

	return m.store.Delete(ctx, si.Key())
}

// ItemsByGrain produces all active items under a given grain
func (m *ItemManager) ItemsByGrain(ctx context.Context, grain string) ([]SecurableItem, error) {
	items := make([]SecurableItem, 0)

	for si, err := range m.store.GetAll(ctx) {
		if err != nil {
			return nil, err
		}

		if strings.EqualFold(si.Grain, grain) {
			items = append(items, si)
		}
	}

	return items, nil
}
