package access

import (
	"fmt"
	"strings"
)

// SecurableItem is a node in a per-grain resource tree; names are
// unique only among siblings, so the storage identity is the full
// path from the tree root
type SecurableItem struct {
	Grain       string   `db:"grain" json:"grain" valid:"required,ascii"`
	Name        string   `db:"name" json:"name" valid:"required"`
	ClientOwner string   `db:"client_owner" json:"client_owner"`
	Path        string   `db:"path" json:"path"`
	ChildPaths  []string `db:"child_paths" json:"child_paths"`

	Track
}

// NewSecurableItem initializes a top-level item; children are attached
// through the item manager which maintains paths and child lists
func NewSecurableItem(grain, name, clientOwner string) SecurableItem {
	name = strings.TrimSpace(name)

	return SecurableItem{
		Grain:       strings.TrimSpace(grain),
		Name:        name,
		ClientOwner: strings.TrimSpace(clientOwner),
		Path:        name,
		ChildPaths:  make([]string, 0),
	}
}

// Key returns the case-folded "{grain}/{path}" storage key
func (si SecurableItem) Key() string {
	return strings.ToLower(fmt.Sprintf("%s/%s", si.Grain, si.Path))
}

// HasChild reports whether a given path is listed among the children
func (si SecurableItem) HasChild(path string) bool {
	for _, p := range si.ChildPaths {
		if strings.EqualFold(p, path) {
			return true
		}
	}

	return false
}
