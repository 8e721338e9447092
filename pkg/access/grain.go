package access

import (
	"strings"
)

// Grain is a top-level authorization namespace that owns a forest of
// securable items; a shared grain lends its permissions to every
// securable item under it when resolution opts in
type Grain struct {
	Name                string   `db:"name" json:"name" valid:"required,ascii"`
	IsShared            bool     `db:"is_shared" json:"is_shared"`
	RequiredWriteScopes []string `db:"required_write_scopes" json:"required_write_scopes"`

	Track
}

func NewGrain(name string, isShared bool, requiredWriteScopes ...string) Grain {
	return Grain{
		Name:                strings.TrimSpace(name),
		IsShared:            isShared,
		RequiredWriteScopes: requiredWriteScopes,
	}
}

// Key returns the case-folded grain name used as its storage key
func (g Grain) Key() string {
	return strings.ToLower(g.Name)
}
