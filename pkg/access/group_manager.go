package access

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/audit"
	"github.com/agubarev/perimeter/pkg/storage"
)

// GroupManager owns group lifecycle: creation with retired-name
// tolerance, logical-name lookup, nesting and membership
type GroupManager struct {
	store     storage.Store[Group]
	scanner   storage.KeyScanner[Group]
	validator *GroupValidator
	logger    *zap.Logger
}

func NewGroupManager(s storage.Store[Group], scanner storage.KeyScanner[Group], v *GroupValidator) (*GroupManager, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if scanner == nil {
		return nil, ErrNilScanner
	}

	if v == nil {
		return nil, ErrNilValidator
	}

	m := &GroupManager{
		store:     s,
		scanner:   scanner,
		validator: v,
	}

	return m, nil
}

// SetLogger assigns a logger for this manager
func (m *GroupManager) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[group]")
	}

	m.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (m *GroupManager) Logger() *zap.Logger {
	if m.logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(errors.Wrap(err, "failed to initialize group manager logger"))
		}

		m.logger = l
	}

	return m.logger
}

// AddGroup persists a new group. Retired records are never displaced:
// when a physical record already occupies the identity key, the new
// group is persisted under a suffixed identifier so that lookups by
// the logical name resolve to the newer, active record.
func (m *GroupManager) AddGroup(ctx context.Context, g Group) (Group, error) {
	if err := m.validator.ValidateNew(ctx, g); err != nil {
		return g, err
	}

	key := g.Key()

	// an active record under the logical name blocks creation
	if _, err := m.GroupByKey(ctx, key); err == nil {
		return g, storage.ErrAlreadyExists
	} else if err != ErrGroupNotFound {
		return g, err
	}

	persistedKey := key
	for scannedKey := range m.scanner.ScanPrefix(ctx, key) {
		if scannedKey == key {
			persistedKey = key + "_" + audit.NewULID().String()
			break
		}
	}

	stored, err := m.store.Add(ctx, persistedKey, g)
	if err != nil {
		return g, errors.Wrap(err, "failed to store group")
	}

	if persistedKey != key {
		m.Logger().Info(
			"group name reused after retirement, persisted under suffixed identifier",
			zap.String("group", stored.StringID()),
			zap.String("persisted_key", persistedKey),
		)
	}

	return stored, nil
}

// resolvePersistedKey locates the physical key holding the active
// record for a logical identity: exact match first, then a prefix scan
// over historical suffixed identifiers picking the first active match
func (m *GroupManager) resolvePersistedKey(ctx context.Context, key string) (string, Group, error) {
	g, err := m.store.Get(ctx, key)
	if err == nil {
		return key, g, nil
	}

	if !storage.IsNotFound(err) {
		return "", g, err
	}

	for scannedKey, candidate := range m.scanner.ScanPrefix(ctx, key+"_") {
		if candidate.Deleted() {
			continue
		}

		if candidate.Key() != key {
			continue
		}

		return scannedKey, candidate, nil
	}

	return "", g, ErrGroupNotFound
}

// GroupByKey returns the active group holding a given identity key
func (m *GroupManager) GroupByKey(ctx context.Context, key string) (Group, error) {
	_, g, err := m.resolvePersistedKey(ctx, key)

	return g, err
}

// GroupBy returns the active group holding a given identity triple
func (m *GroupManager) GroupBy(ctx context.Context, name, identityProvider, tenantID string) (Group, error) {
	return m.GroupByKey(ctx, GroupKey(name, identityProvider, tenantID))
}

// UpdateGroup persists changes to an existing group
func (m *GroupManager) UpdateGroup(ctx context.Context, g Group) (Group, error) {
	persistedKey, _, err := m.resolvePersistedKey(ctx, g.Key())
	if err != nil {
		return g, err
	}

	stored, err := m.store.Update(ctx, persistedKey, g)
	if err != nil {
		return g, errors.Wrap(err, "failed to update group")
	}

	return stored, nil
}

// DeleteGroup retires the active group holding a given identity key
func (m *GroupManager) DeleteGroup(ctx context.Context, key string) error {
	persistedKey, _, err := m.resolvePersistedKey(ctx, key)
	if err != nil {
		return err
	}

	return m.store.Delete(ctx, persistedKey)
}

// Groups produces all active groups
func (m *GroupManager) Groups(ctx context.Context) ([]Group, error) {
	gs := make([]Group, 0)

	for g, err := range m.store.GetAll(ctx) {
		if err != nil {
			return nil, err
		}

		gs = append(gs, g)
	}

	return gs, nil
}

// AddChildGroup nests a child group under a parent custom group;
// membership will flow from the child to the parent transitively
func (m *GroupManager) AddChildGroup(ctx context.Context, parentKey, childKey string) error {
	parent, err := m.GroupByKey(ctx, parentKey)
	if err != nil {
		return err
	}

	if parent.Source != GSCustom {
		return ErrNotCustomGroup
	}

	child, err := m.GroupByKey(ctx, childKey)
	if err != nil {
		return err
	}

	if parent.HasChild(child.Key()) {
		return ErrDuplicateChildGroup
	}

	// nesting the parent anywhere under the child would close a cycle
	isAncestor, err := m.isAncestor(ctx, parent.Key(), child)
	if err != nil {
		return err
	}

	if isAncestor || parent.Key() == child.Key() {
		return ErrCircuitedParent
	}

	parent.ChildKeys = append(parent.ChildKeys, child.Key())
	if _, err = m.UpdateGroup(ctx, parent); err != nil {
		return err
	}

	child.ParentKeys = append(child.ParentKeys, parent.Key())
	if _, err = m.UpdateGroup(ctx, child); err != nil {
		return err
	}

	return nil
}

// isAncestor reports whether a given key occurs anywhere above a group
func (m *GroupManager) isAncestor(ctx context.Context, key string, g Group) (bool, error) {
	visited := map[string]bool{g.Key(): true}
	queue := append([]string(nil), g.ParentKeys...)

	for len(queue) > 0 {
		parentKey := queue[0]
		queue = queue[1:]

		if visited[parentKey] {
			continue
		}

		visited[parentKey] = true

		if parentKey == key {
			return true, nil
		}

		parent, err := m.GroupByKey(ctx, parentKey)
		if err != nil {
			if err == ErrGroupNotFound {
				continue
			}

			return false, err
		}

		queue = append(queue, parent.ParentKeys...)
	}

	return false, nil
}

// RemoveChildGroup detaches a child group from a parent group
func (m *GroupManager) RemoveChildGroup(ctx context.Context, parentKey, childKey string) error {
	parent, err := m.GroupByKey(ctx, parentKey)
	if err != nil {
		return err
	}

	child, err := m.GroupByKey(ctx, childKey)
	if err != nil {
		return err
	}

	parent.ChildKeys = removeKey(parent.ChildKeys, child.Key())
	if _, err = m.UpdateGroup(ctx, parent); err != nil {
		return err
	}

	child.ParentKeys = removeKey(child.ParentKeys, parent.Key())
	if _, err = m.UpdateGroup(ctx, child); err != nil {
		return err
	}

	return nil
}

// AddMember registers a user key as a direct member of a group
func (m *GroupManager) AddMember(ctx context.Context, groupKey, userKey string) error {
	g, err := m.GroupByKey(ctx, groupKey)
	if err != nil {
		return err
	}

	if g.HasMember(userKey) {
		return nil
	}

	g.UserKeys = append(g.UserKeys, userKey)

	_, err = m.UpdateGroup(ctx, g)

	return err
}

// RemoveMember removes a user key from a group's direct members
func (m *GroupManager) RemoveMember(ctx context.Context, groupKey, userKey string) error {
	g, err := m.GroupByKey(ctx, groupKey)
	if err != nil {
		return err
	}

	g.UserKeys = removeKeyFold(g.UserKeys, userKey)

	_, err = m.UpdateGroup(ctx, g)

	return err
}

// AssignRole records a role key on a group
func (m *GroupManager) AssignRole(ctx context.Context, groupKey, roleKey string) error {
	g, err := m.GroupByKey(ctx, groupKey)
	if err != nil {
		return err
	}

	if g.HasRole(roleKey) {
		return nil
	}

	g.RoleKeys = append(g.RoleKeys, roleKey)

	_, err = m.UpdateGroup(ctx, g)

	return err
}

func removeKey(keys []string, key string) []string {
	result := keys[:0]
	for _, k := range keys {
		if k != key {
			result = append(result, k)
		}
	}

	return result
}

func removeKeyFold(keys []string, key string) []string {
	result := keys[:0]
	for _, k := range keys {
		if !strings.EqualFold(k, key) {
			result = append(result, k)
		}
	}

	return result
}
