package access

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// UserManager owns user records and their direct assignments; the
// store it wraps is expected to be key-formatted so that identity
// provider spellings like "windows\alice" normalize consistently
type UserManager struct {
	store     storage.Store[User]
	validator *UserValidator
	logger    *zap.Logger
}

func NewUserManager(s storage.Store[User], v *UserValidator) (*UserManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &UserManager{
		store:     s,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *UserManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[user]")
	}

	m.logger = logger

	return nil
}

// AddUser validates and persists a new user record
func (m *UserManager) AddUser(ctx context.Context, u User) (User, error) {
	if err := m.validator.ValidateNew(ctx, u); err != nil {
		return u, err
	}

	stored, err := m.store.Add(ctx, u.Key(), u)
	if err != nil {
		return u, errors.Wrap(err, "failed to store user")
	}

	return stored, nil
}

// UserByKey returns an active user by "{subjectId}:{identityProvider}"
func (m *UserManager) UserByKey(ctx context.Context, key string) (User, error) {
	u, err := m.store.Get(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return u, ErrUserNotFound
		}

		return u, err
	}

	return u, nil
}

// UpdateUser persists changes to an existing user record
func (m *UserManager) UpdateUser(ctx context.Context, u User) (User, error) {
	stored, err := m.store.Update(ctx, u.Key(), u)
	if err != nil {
		return u, errors.Wrap(err, "failed to update user")
	}

	return stored, nil
}

// DeleteUser retires a user record
func (m *UserManager) DeleteUser(ctx context.Context, key string) error {
	return m.store.Delete(ctx, key)
}

// AssignRole records a role key directly on a user
func (m *UserManager) AssignRole(ctx context.Context, userKey, roleKey string) (User, error) {
	u, err := m.UserByKey(ctx, userKey)
	if err != nil {
		return u, err
	}

	if u.HasRole(roleKey) {
		return u, nil
	}

	u.RoleKeys = append(u.RoleKeys, roleKey)

	return m.UpdateUser(ctx, u)
}

// JoinGroup records a group identity on a user's membership list
func (m *UserManager) JoinGroup(ctx context.Context, userKey, groupKey string) (User, error) {
	u, err := m.UserByKey(ctx, userKey)
	if err != nil {
		return u, err
	}

	if u.MemberOf(groupKey) {
		return u, nil
	}

	u.GroupKeys = append(u.GroupKeys, groupKey)

	return m.UpdateUser(ctx, u)
}

// LeaveGroup removes a group identity from a user's membership list
func (m *UserManager) LeaveGroup(ctx context.Context, userKey, groupKey string) (User, error) {
	u, err := m.UserByKey(ctx, userKey)
	if err != nil {
		return u, err
	}

	u.GroupKeys = removeKey(u.GroupKeys, groupKey)

	return m.UpdateUser(ctx, u)
}
