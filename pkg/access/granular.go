package access

import (
	"fmt"
	"strings"
)

// GranularPermission is a per-subject override record: explicit allows
// that apply regardless of role membership and explicit denies that
// override any role-derived allow
type GranularPermission struct {
	SubjectID        string `db:"subject_id" json:"subject_id" valid:"required"`
	IdentityProvider string `db:"identity_provider" json:"identity_provider" valid:"required"`

	AdditionalPermissions []Permission `db:"additional_permissions" json:"additional_permissions"`
	DeniedPermissions     []Permission `db:"denied_permissions" json:"denied_permissions"`

	Track
}

func NewGranularPermission(subjectID, identityProvider string) GranularPermission {
	return GranularPermission{
		SubjectID:             strings.TrimSpace(subjectID),
		IdentityProvider:      strings.TrimSpace(identityProvider),
		AdditionalPermissions: make([]Permission, 0),
		DeniedPermissions:     make([]Permission, 0),
	}
}

// Key returns the "{subjectId}:{identityProvider}" record key
func (gp GranularPermission) Key() string {
	return SubjectKey(gp.SubjectID, gp.IdentityProvider)
}

// SubjectKey formats the per-subject record key
func SubjectKey(subjectID, identityProvider string) string {
	return fmt.Sprintf("%s:%s", subjectID, identityProvider)
}
