package access

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// RoleManager owns role lifecycle and role-side assignment records
type RoleManager struct {
	store     storage.Store[Role]
	validator *RoleValidator
	logger    *zap.Logger
}

func NewRoleManager(s storage.Store[Role], v *RoleValidator) (*RoleManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &RoleManager{
		store:     s,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *RoleManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[role]")
	}

	m.logger = logger

	return nil
}

// AddRole validates and persists a new role
func (m *RoleManager) AddRole(ctx context.Context, r Role) (Role, error) {
	if err := m.validator.ValidateNew(ctx, r); err != nil {
		return r, err
	}

	stored, err := m.store.Add(ctx, r.Key(), r)
	if err != nil {
		return r, errors.Wrap(err, "failed to store role")
	}

	return stored, nil
}

// RoleByKey returns an active role by its identity key
func (m *RoleManager) RoleByKey(ctx context.Context, key string) (Role, error) {
	r, err := m.store.Get(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return r, ErrRoleNotFound
		}

		return r, err
	}

	return r, nil
}

// Role returns an active role by its identity triple
func (m *RoleManager) Role(ctx context.Context, grain, securableItem, name string) (Role, error) {
	return m.RoleByKey(ctx, NewRole(grain, securableItem, name).Key())
}

// UpdateRole persists changes to an existing role
func (m *RoleManager) UpdateRole(ctx context.Context, r Role) (Role, error) {
	stored, err := m.store.Update(ctx, r.Key(), r)
	if err != nil {
		return r, errors.Wrap(err, "failed to update role")
	}

	return stored, nil
}

// DeleteRole retires a role
func (m *RoleManager) DeleteRole(ctx context.Context, key string) error {
	return m.store.Delete(ctx, key)
}

// Roles produces all active roles
func (m *RoleManager) Roles(ctx context.Context) ([]Role, error) {
	rs := make([]Role, 0)

	for r, err := range m.store.GetAll(ctx) {
		if err != nil {
			return nil, err
		}

		rs = append(rs, r)
	}

	return rs, nil
}

// AddPermissions attaches permissions to a role's allowed set; every
// permission must share the role's grain/securableItem context
func (m *RoleManager) AddPermissions(ctx context.Context, roleKey string, ps ...Permission) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	existing := NewPermissionSet(r.AllowedPermissions...)

	for _, p := range ps {
		if !r.MatchesContext(p.Grain, p.SecurableItem) {
			return r, errors.Wrapf(
				ErrIncompatibleState,
				"permission %s does not belong to %s", p, r.StringID(),
			)
		}

		if existing.Contains(p) {
			continue
		}

		existing.Add(p)
		r.AllowedPermissions = append(r.AllowedPermissions, p)
	}

	return m.UpdateRole(ctx, r)
}

// DenyPermissions attaches permissions to a role's denied set
func (m *RoleManager) DenyPermissions(ctx context.Context, roleKey string, ps ...Permission) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	existing := NewPermissionSet(r.DeniedPermissions...)

	for _, p := range ps {
		if !r.MatchesContext(p.Grain, p.SecurableItem) {
			return r, errors.Wrapf(
				ErrIncompatibleState,
				"permission %s does not belong to %s", p, r.StringID(),
			)
		}

		if existing.Contains(p) {
			continue
		}

		existing.Add(p)
		r.DeniedPermissions = append(r.DeniedPermissions, p)
	}

	return m.UpdateRole(ctx, r)
}

// RemovePermissions detaches permissions from a role's allowed set
func (m *RoleManager) RemovePermissions(ctx context.Context, roleKey string, ps ...Permission) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	removed := NewPermissionSet(ps...)

	kept := make([]Permission, 0, len(r.AllowedPermissions))
	for _, p := range r.AllowedPermissions {
		if !removed.Contains(p) {
			kept = append(kept, p)
		}
	}

	r.AllowedPermissions = kept

	return m.UpdateRole(ctx, r)
}

// AssignGroup records a group identity on a role
func (m *RoleManager) AssignGroup(ctx context.Context, roleKey, groupKey string) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	if r.IsAssignedToGroup(groupKey) {
		return r, nil
	}

	r.GroupKeys = append(r.GroupKeys, groupKey)

	return m.UpdateRole(ctx, r)
}

// UnassignGroup removes a group identity from a role
func (m *RoleManager) UnassignGroup(ctx context.Context, roleKey, groupKey string) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	r.GroupKeys = removeKey(r.GroupKeys, groupKey)

	return m.UpdateRole(ctx, r)
}

// AssignUser records a user key on a role
func (m *RoleManager) AssignUser(ctx context.Context, roleKey, userKey string) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	if r.IsAssignedToUser(userKey) {
		return r, nil
	}

	r.UserKeys = append(r.UserKeys, userKey)

	return m.UpdateRole(ctx, r)
}

// UnassignUser removes a user key from a role
func (m *RoleManager) UnassignUser(ctx context.Context, roleKey, userKey string) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	r.UserKeys = removeKeyFold(r.UserKeys, userKey)

	return m.UpdateRole(ctx, r)
}

// SetParent links a role to a parent role for opt-in hierarchy
// expansion; the parent chain must stay acyclic
func (m *RoleManager) SetParent(ctx context.Context, roleKey, parentKey string) (Role, error) {
	r, err := m.RoleByKey(ctx, roleKey)
	if err != nil {
		return r, err
	}

	if parentKey == "" {
		r.ParentKey = ""
		return m.UpdateRole(ctx, r)
	}

	parent, err := m.RoleByKey(ctx, parentKey)
	if err != nil {
		return r, err
	}

	// walking up from the new parent must never reach this role
	visited := map[string]bool{}
	for key := parent.Key(); key != ""; {
		if key == r.Key() || visited[key] {
			return r, ErrCircuitedParent
		}

		visited[key] = true

		ancestor, err := m.RoleByKey(ctx, key)
		if err != nil {
			if err == ErrRoleNotFound {
				break
			}

			return r, err
		}

		key = ancestor.ParentKey
	}

	r.ParentKey = parent.Key()

	if _, err = m.UpdateRole(ctx, r); err != nil {
		return r, err
	}

	if !containsKey(parent.ChildKeys, r.Key()) {
		parent.ChildKeys = append(parent.ChildKeys, r.Key())
		if _, err = m.UpdateRole(ctx, parent); err != nil {
			return r, err
		}
	}

	return r, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}

	return false
}
