package access

import (
	"errors"
	"fmt"
	"strings"
)

// errors
var (
	ErrNoInputData          = errors.New("no input data")
	ErrNilStore             = errors.New("store is nil")
	ErrNilScanner           = errors.New("key scanner is nil")
	ErrNilValidator         = errors.New("validator is nil")
	ErrNilHierarchy         = errors.New("group hierarchy resolver is nil")
	ErrNilResolver          = errors.New("resolver is nil")
	ErrNilGroupManager      = errors.New("group manager is nil")
	ErrNilItemManager       = errors.New("securable item manager is nil")
	ErrEmptyGroupName       = errors.New("empty group name")
	ErrEmptyRoleName        = errors.New("empty role name")
	ErrEmptyGrainName       = errors.New("empty grain name")
	ErrEmptySubjectID       = errors.New("empty subject id")
	ErrEmptyClientID        = errors.New("empty client id")
	ErrGrainNotFound        = errors.New("grain not found")
	ErrItemNotFound         = errors.New("securable item not found")
	ErrRoleNotFound         = errors.New("role not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrPermissionNotFound   = errors.New("permission not found")
	ErrNotCustomGroup       = errors.New("group is not a custom group")
	ErrDuplicateChildGroup  = errors.New("group is already a child of this group")
	ErrCircuitedParent      = errors.New("circuited parenting")
	ErrValidationFailed     = errors.New("validation failed")
	ErrIncompatibleState    = errors.New("incompatible state")
	ErrItemNotOwnedByClient = errors.New("securable item is not owned by the client")
)

// Violation is a single field-level validation failure
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError aggregates every violation found during a
// pre-write check, so callers can surface all problems at once
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	s := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		s = append(s, v.String())
	}

	return fmt.Sprintf("validation failed: %s", strings.Join(s, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
