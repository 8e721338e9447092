package access

import (
	"fmt"
	"strings"
)

// GroupSource designates where a group originates from
type GroupSource uint8

const (
	GSDirectory GroupSource = 1 << iota
	GSCustom
)

func (s GroupSource) String() string {
	switch s {
	case GSDirectory:
		return "directory"
	case GSCustom:
		return "custom"
	default:
		return "unknown group source"
	}
}

// identitySeparator keeps the three identity fields from bleeding
// into each other inside the composite key
const identitySeparator = "\x1f"

// GroupKey composes the identity of a group: the name compared
// case-insensitively, identity provider and tenant compared as-is
func GroupKey(name, identityProvider, tenantID string) string {
	return strings.ToLower(strings.TrimSpace(name)) +
		identitySeparator + identityProvider +
		identitySeparator + tenantID
}

// Group is a membership container; a custom group may contain other
// groups as children, and membership flows from child to parent
type Group struct {
	Name             string      `db:"name" json:"name" valid:"required"`
	IdentityProvider string      `db:"identity_provider" json:"identity_provider"`
	TenantID         string      `db:"tenant_id" json:"tenant_id"`
	Source           GroupSource `db:"source" json:"source"`

	// directly assigned roles (role keys) and members (user keys)
	RoleKeys []string `db:"role_keys" json:"role_keys"`
	UserKeys []string `db:"user_keys" json:"user_keys"`

	// child->parent edges carry transitive membership; both sides
	// reference groups by their identity key
	ParentKeys []string `db:"parent_keys" json:"parent_keys"`
	ChildKeys  []string `db:"child_keys" json:"child_keys"`

	Track
}

func NewGroup(name, identityProvider, tenantID string, source GroupSource) Group {
	return Group{
		Name:             strings.TrimSpace(name),
		IdentityProvider: identityProvider,
		TenantID:         tenantID,
		Source:           source,
		RoleKeys:         make([]string, 0),
		UserKeys:         make([]string, 0),
		ParentKeys:       make([]string, 0),
		ChildKeys:        make([]string, 0),
	}
}

// Key returns the composite identity key of this group
func (g Group) Key() string {
	return GroupKey(g.Name, g.IdentityProvider, g.TenantID)
}

func (g Group) StringID() string {
	return fmt.Sprintf("group(%s:%s:%s)", g.Name, g.IdentityProvider, g.TenantID)
}

// Identical compares two groups by their full identity; groups sharing
// only a name are distinct
func (g Group) Identical(other Group) bool {
	return strings.EqualFold(g.Name, other.Name) &&
		g.IdentityProvider == other.IdentityProvider &&
		g.TenantID == other.TenantID
}

// HasMember reports whether a given user key is a direct member
func (g Group) HasMember(userKey string) bool {
	for _, key := range g.UserKeys {
		if strings.EqualFold(key, userKey) {
			return true
		}
	}

	return false
}

// HasRole reports whether a given role key is directly assigned
func (g Group) HasRole(roleKey string) bool {
	for _, key := range g.RoleKeys {
		if key == roleKey {
			return true
		}
	}

	return false
}

// HasParent reports whether a given group identity is listed as a parent
func (g Group) HasParent(groupKey string) bool {
	for _, key := range g.ParentKeys {
		if key == groupKey {
			return true
		}
	}

	return false
}

// HasChild reports whether a given group identity is listed as a child
func (g Group) HasChild(groupKey string) bool {
	for _, key := range g.ChildKeys {
		if key == groupKey {
			return true
		}
	}

	return false
}
