package access

import (
	"strings"
)

// User is an authenticated subject known by (subjectId,
// identityProvider); it carries direct role assignments, direct
// permission grants/denials and group memberships by identity key
type User struct {
	SubjectID        string `db:"subject_id" json:"subject_id" valid:"required"`
	IdentityProvider string `db:"identity_provider" json:"identity_provider" valid:"required"`

	RoleKeys          []string     `db:"role_keys" json:"role_keys"`
	Permissions       []Permission `db:"permissions" json:"permissions"`
	DeniedPermissions []Permission `db:"denied_permissions" json:"denied_permissions"`
	GroupKeys         []string     `db:"group_keys" json:"group_keys"`

	Track
}

func NewUser(subjectID, identityProvider string) User {
	return User{
		SubjectID:         strings.TrimSpace(subjectID),
		IdentityProvider:  strings.TrimSpace(identityProvider),
		RoleKeys:          make([]string, 0),
		Permissions:       make([]Permission, 0),
		DeniedPermissions: make([]Permission, 0),
		GroupKeys:         make([]string, 0),
	}
}

// Key returns the "{subjectId}:{identityProvider}" user key
func (u User) Key() string {
	return SubjectKey(u.SubjectID, u.IdentityProvider)
}

// HasRole reports whether a given role key is directly assigned
func (u User) HasRole(roleKey string) bool {
	for _, key := range u.RoleKeys {
		if key == roleKey {
			return true
		}
	}

	return false
}

// MemberOf reports whether a given group identity is listed among
// the user's memberships
func (u User) MemberOf(groupKey string) bool {
	for _, key := range u.GroupKeys {
		if key == groupKey {
			return true
		}
	}

	return false
}
