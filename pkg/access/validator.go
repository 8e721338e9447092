package access

import (
	"context"
	"sort"

	"github.com/asaskevich/govalidator"
	"github.com/pkg/errors"

	"github.com/agubarev/perimeter/pkg/storage"
)

// fieldViolations runs tag-driven checks over a given entity and
// returns every failed field instead of stopping at the first one
func fieldViolations(v interface{}) []Violation {
	ok, err := govalidator.ValidateStruct(v)
	if ok || err == nil {
		return nil
	}

	byField := govalidator.ErrorsByField(err)

	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}

	// deterministic violation order
	sort.Strings(fields)

	vs := make([]Violation, 0, len(byField))
	for _, field := range fields {
		vs = append(vs, Violation{Field: field, Message: byField[field]})
	}

	return vs
}

// uniqueViolation re-queries a store for an active entity holding the
// natural key; soft-deleted entities never count as existing
func uniqueViolation[T any](ctx context.Context, s storage.Store[T], key, field string) (*Violation, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "uniqueness check failed")
	}

	if exists {
		return &Violation{Field: field, Message: "an active entity with this identity already exists"}, nil
	}

	return nil, nil
}

func violationError(vs []Violation) error {
	if len(vs) == 0 {
		return nil
	}

	return &ValidationError{Violations: vs}
}

// GrainValidator checks grains before writes
type GrainValidator struct {
	store storage.Store[Grain]
}

func NewGrainValidator(s storage.Store[Grain]) (*GrainValidator, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &GrainValidator{store: s}, nil
}

func (v *GrainValidator) ValidateNew(ctx context.Context, g Grain) error {
	vs := fieldViolations(&g)

	if g.Name != "" {
		uv, err := uniqueViolation(ctx, v.store, g.Key(), "Name")
		if err != nil {
			return err
		}

		if uv != nil {
			vs = append(vs, *uv)
		}
	}

	return violationError(vs)
}

// ItemValidator checks securable items before writes
type ItemValidator struct {
	store storage.Store[SecurableItem]
}

func NewItemValidator(s storage.Store[SecurableItem]) (*ItemValidator, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &ItemValidator{store: s}, nil
}

func (v *ItemValidator) ValidateNew(ctx context.Context, si SecurableItem) error {
	vs := fieldViolations(&si)

	if si.Grain != "" && si.Path != "" {
		uv, err := uniqueViolation(ctx, v.store, si.Key(), "Name")
		if err != nil {
			return err
		}

		if uv != nil {
			vs = append(vs, *uv)
		}
	}

	return violationError(vs)
}

// PermissionValidator checks permissions before writes
type PermissionValidator struct {
	store storage.Store[Permission]
}

func NewPermissionValidator(s storage.Store[Permission]) (*PermissionValidator, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &PermissionValidator{store: s}, nil
}

func (v *PermissionValidator) ValidateNew(ctx context.Context, p Permission) error {
	vs := fieldViolations(&p)

	if p.Grain != "" && p.SecurableItem != "" && p.Name != "" {
		uv, err := uniqueViolation(ctx, v.store, p.Key(), "Name")
		if err != nil {
			return err
		}

		if uv != nil {
			vs = append(vs, *uv)
		}
	}

	return violationError(vs)
}

// RoleValidator checks roles before writes
type RoleValidator struct {
	store storage.Store[Role]
}

func NewRoleValidator(s storage.Store[Role]) (*RoleValidator, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &RoleValidator{store: s}, nil
}

func (v *RoleValidator) ValidateNew(ctx context.Context, r Role) error {
	vs := fieldViolations(&r)

	if r.Grain != "" && r.SecurableItem != "" && r.Name != "" {
		uv, err := uniqueViolation(ctx, v.store, r.Key(), "Name")
		if err != nil {
			return err
		}

		if uv != nil {
			vs = append(vs, *uv)
		}
	}

	return violationError(vs)
}

// GroupValidator checks group fields before writes; group uniqueness
// is owned by the group manager, which must also tolerate retired
// records sharing a logical name
type GroupValidator struct{}

func NewGroupValidator() (*GroupValidator, error) {
	return &GroupValidator{}, nil
}

func (v *GroupValidator) ValidateNew(ctx context.Context, g Group) error {
	return violationError(fieldViolations(&g))
}

// UserValidator checks users before writes
type UserValidator struct {
	store storage.Store[User]
}

func NewUserValidator(s storage.Store[User]) (*UserValidator, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &UserValidator{store: s}, nil
}

func (v *UserValidator) ValidateNew(ctx context.Context, u User) error {
	vs := fieldViolations(&u)

	if u.SubjectID != "" && u.IdentityProvider != "" {
		uv, err := uniqueViolation(ctx, v.store, u.Key(), "SubjectID")
		if err != nil {
			return err
		}

		if uv != nil {
			vs = append(vs, *uv)
		}
	}

	return violationError(vs)
}

// ClientValidator checks API clients before writes
type ClientValidator struct {
	store storage.Store[Client]
}

func NewClientValidator(s storage.Store[Client]) (*ClientValidator, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	return &ClientValidator{store: s}, nil
}

func (v *ClientValidator) ValidateNew(ctx context.Context, c Client) error {
	vs := fieldViolations(&c)

	if c.ClientID != "" {
		uv, err := uniqueViolation(ctx, v.store, c.Key(), "ClientID")
		if err != nil {
			return err
		}

		if uv != nil {
			vs = append(vs, *uv)
		}
	}

	return violationError(vs)
}

// GranularValidator checks granular permission records before writes
type GranularValidator struct{}

func NewGranularValidator() (*GranularValidator, error) {
	return &GranularValidator{}, nil
}

func (v *GranularValidator) ValidateNew(ctx context.Context, gp GranularPermission) error {
	return violationError(fieldViolations(&gp))
}
