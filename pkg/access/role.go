package access

import (
	"fmt"
	"strings"
)

// Role binds allowed and denied permission sets to a (grain,
// securableItem, name) triple; it may optionally take part in a role
// hierarchy via parent/child references and carries back-references
// to the groups and users it is directly assigned to
type Role struct {
	Grain         string `db:"grain" json:"grain" valid:"required,ascii"`
	SecurableItem string `db:"securable_item" json:"securable_item" valid:"required"`
	Name          string `db:"name" json:"name" valid:"required"`

	AllowedPermissions []Permission `db:"allowed_permissions" json:"allowed_permissions"`
	DeniedPermissions  []Permission `db:"denied_permissions" json:"denied_permissions"`

	ParentKey string   `db:"parent_key" json:"parent_key"`
	ChildKeys []string `db:"child_keys" json:"child_keys"`

	// direct assignments; group entries are group identity keys,
	// user entries are "{subjectId}:{identityProvider}" keys
	GroupKeys []string `db:"group_keys" json:"group_keys"`
	UserKeys  []string `db:"user_keys" json:"user_keys"`

	Track
}

func NewRole(grain, securableItem, name string) Role {
	return Role{
		Grain:              strings.TrimSpace(grain),
		SecurableItem:      strings.TrimSpace(securableItem),
		Name:               strings.TrimSpace(name),
		AllowedPermissions: make([]Permission, 0),
		DeniedPermissions:  make([]Permission, 0),
		ChildKeys:          make([]string, 0),
		GroupKeys:          make([]string, 0),
		UserKeys:           make([]string, 0),
	}
}

// Key returns the case-folded role identity used as its storage key
func (r Role) Key() string {
	return strings.ToLower(fmt.Sprintf("%s/%s.%s", r.Grain, r.SecurableItem, r.Name))
}

func (r Role) StringID() string {
	return fmt.Sprintf("role(%s/%s.%s)", r.Grain, r.SecurableItem, r.Name)
}

// MatchesContext reports whether the role is bound to a given
// grain/securableItem pair
func (r Role) MatchesContext(grain, securableItem string) bool {
	return strings.EqualFold(r.Grain, grain) && strings.EqualFold(r.SecurableItem, securableItem)
}

// IsAssignedToUser reports whether a given user key is directly assigned
func (r Role) IsAssignedToUser(userKey string) bool {
	for _, key := range r.UserKeys {
		if strings.EqualFold(key, userKey) {
			return true
		}
	}

	return false
}

// IsAssignedToGroup reports whether a given group identity is directly assigned
func (r Role) IsAssignedToGroup(groupKey string) bool {
	for _, key := range r.GroupKeys {
		if key == groupKey {
			return true
		}
	}

	return false
}
