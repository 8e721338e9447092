package access

import (
	"fmt"
	"sort"
	"strings"
)

// Permission is a named capability scoped to a grain and a securable
// item; two permissions are equal iff the (grain, securableItem, name)
// triple matches case-insensitively
type Permission struct {
	Grain         string `db:"grain" json:"grain" valid:"required,ascii"`
	SecurableItem string `db:"securable_item" json:"securable_item" valid:"required"`
	Name          string `db:"name" json:"name" valid:"required"`

	Track
}

func NewPermission(grain, securableItem, name string) Permission {
	return Permission{
		Grain:         strings.TrimSpace(grain),
		SecurableItem: strings.TrimSpace(securableItem),
		Name:          strings.TrimSpace(name),
	}
}

// String returns the literal permission shape "{grain}/{securableItem}.{name}"
func (p Permission) String() string {
	return fmt.Sprintf("%s/%s.%s", p.Grain, p.SecurableItem, p.Name)
}

// Key returns the case-folded identity used for storage and comparison
func (p Permission) Key() string {
	return strings.ToLower(p.String())
}

// Equal compares the identity triple case-insensitively
func (p Permission) Equal(other Permission) bool {
	return p.Key() == other.Key()
}

// PermissionSet is a deduplicated collection of permissions keyed by
// their case-folded identity
type PermissionSet map[string]Permission

func NewPermissionSet(ps ...Permission) PermissionSet {
	set := make(PermissionSet, len(ps))
	set.Add(ps...)

	return set
}

func (set PermissionSet) Add(ps ...Permission) {
	for _, p := range ps {
		set[p.Key()] = p
	}
}

func (set PermissionSet) Contains(p Permission) bool {
	_, ok := set[p.Key()]
	return ok
}

// Subtract returns a copy of the set without any permission present
// in a given other set
func (set PermissionSet) Subtract(other PermissionSet) PermissionSet {
	result := make(PermissionSet, len(set))
	for key, p := range set {
		if _, ok := other[key]; !ok {
			result[key] = p
		}
	}

	return result
}

// Strings returns the sorted canonical string forms of the set
func (set PermissionSet) Strings() []string {
	s := make([]string, 0, len(set))
	for _, p := range set {
		s = append(s, p.String())
	}

	sort.Strings(s)

	return s
}

// List returns the set as a slice, ordered by identity
func (set PermissionSet) List() []Permission {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	ps := make([]Permission, 0, len(keys))
	for _, key := range keys {
		ps = append(ps, set[key])
	}

	return ps
}
