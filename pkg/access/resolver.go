package access

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/agubarev/perimeter/pkg/storage"
)

// ResolveRequest carries everything needed to compute the permissions
// a subject holds within a given grain/securableItem scope
type ResolveRequest struct {
	Grain            string
	SecurableItem    string
	SubjectID        string
	IdentityProvider string

	// groups the subject is a direct member of, as asserted
	// by the identity provider
	Groups []Group

	// IncludeShared admits permissions granted anywhere under the
	// same grain when that grain is marked shared
	IncludeShared bool

	// ExpandRoleHierarchy admits permissions of ancestor roles,
	// walking parent links the same way group expansion does
	ExpandRoleHierarchy bool
}

// SubjectKey formats the requesting subject's user key
func (req ResolveRequest) SubjectKey() string {
	return SubjectKey(req.SubjectID, req.IdentityProvider)
}

// ResolveResult is a single resolver's contribution: permissions it
// allows and permissions it explicitly denies
type ResolveResult struct {
	Allowed PermissionSet
	Denied  PermissionSet
}

func NewResolveResult() ResolveResult {
	return ResolveResult{
		Allowed: make(PermissionSet),
		Denied:  make(PermissionSet),
	}
}

// Resolver computes one source of permissions for a subject; missing
// user or group context yields empty contributions, never an error
type Resolver interface {
	Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error)
}

// RoleResolver derives permissions from roles assigned to the subject
// directly or to any group in the subject's expanded membership set
type RoleResolver struct {
	roles     storage.Store[Role]
	grains    storage.Store[Grain]
	users     storage.Store[User]
	hierarchy *GroupHierarchy
	logger    *zap.Logger
}

func NewRoleResolver(
	roles storage.Store[Role],
	grains storage.Store[Grain],
	users storage.Store[User],
	hierarchy *GroupHierarchy,
	logger *zap.Logger,
) (*RoleResolver, error) {
	if roles == nil || grains == nil || users == nil {
		return nil, ErrNilStore
	}

	if hierarchy == nil {
		return nil, ErrNilHierarchy
	}

	if logger != nil {
		logger = logger.Named("[role_resolver]")
	}

	r := &RoleResolver{
		roles:     roles,
		grains:    grains,
		users:     users,
		hierarchy: hierarchy,
		logger:    logger,
	}

	return r, nil
}

// matchesScope reports whether a role is bound to the requested
// grain/securableItem context, or falls under a shared grain the
// request opted into
func (r *RoleResolver) matchesScope(ctx context.Context, role Role, req ResolveRequest) (bool, error) {
	if !strings.EqualFold(role.Grain, req.Grain) {
		return false, nil
	}

	if strings.EqualFold(role.SecurableItem, req.SecurableItem) {
		return true, nil
	}

	if !req.IncludeShared {
		return false, nil
	}

	grain, err := r.grains.Get(ctx, strings.ToLower(role.Grain))
	if err != nil {
		// an unregistered grain cannot be shared
		if storage.IsNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return grain.IsShared, nil
}

func (r *RoleResolver) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	result := NewResolveResult()

	// expanding direct memberships into the full ancestor closure
	expanded, err := r.hierarchy.Expand(ctx, req.Groups)
	if err != nil {
		return result, errors.Wrap(err, "failed to expand group memberships")
	}

	groupKeys := make(map[string]bool, len(expanded))
	for _, g := range expanded {
		groupKeys[g.Key()] = true
	}

	// the user record is optional; a subject unknown to this system
	// may still hold permissions through its groups
	subjectKey := req.SubjectKey()

	var subject User
	subjectFound := false

	if subject, err = r.users.Get(ctx, subjectKey); err == nil {
		subjectFound = true
	} else if !storage.IsNotFound(err) {
		return result, errors.Wrap(err, "failed to obtain user record")
	}

	// direct grants and denials held on the user record itself
	if subjectFound {
		for _, p := range subject.Permissions {
			if strings.EqualFold(p.Grain, req.Grain) && strings.EqualFold(p.SecurableItem, req.SecurableItem) {
				result.Allowed.Add(p)
			}
		}

		for _, p := range subject.DeniedPermissions {
			if strings.EqualFold(p.Grain, req.Grain) && strings.EqualFold(p.SecurableItem, req.SecurableItem) {
				result.Denied.Add(p)
			}
		}
	}

	for role, err := range r.roles.GetAll(ctx) {
		if err != nil {
			return result, errors.Wrap(err, "role iteration failed")
		}

		matched, err := r.matchesScope(ctx, role, req)
		if err != nil {
			return result, err
		}

		if !matched {
			continue
		}

		assigned := role.IsAssignedToUser(subjectKey)

		if !assigned && subjectFound && subject.HasRole(role.Key()) {
			assigned = true
		}

		if !assigned {
			for _, groupKey := range role.GroupKeys {
				if groupKeys[groupKey] {
					assigned = true
					break
				}
			}
		}

		if !assigned {
			continue
		}

		result.Allowed.Add(role.AllowedPermissions...)
		result.Denied.Add(role.DeniedPermissions...)

		if req.ExpandRoleHierarchy {
			if err = r.expandAncestors(ctx, role, req, &result); err != nil {
				return result, err
			}
		}
	}

	return result, nil
}

// expandAncestors walks a role's parent chain and merges the
// permission sets of every ancestor bound to the same scope;
// a visited guard tolerates malformed cyclic chains
func (r *RoleResolver) expandAncestors(ctx context.Context, role Role, req ResolveRequest, result *ResolveResult) error {
	visited := map[string]bool{role.Key(): true}

	for parentKey := role.ParentKey; parentKey != ""; {
		if visited[parentKey] {
			if r.logger != nil {
				r.logger.Warn(
					"role parent chain is circuited",
					zap.String("role", role.StringID()),
					zap.String("parent_key", parentKey),
				)
			}

			return nil
		}

		visited[parentKey] = true

		parent, err := r.roles.Get(ctx, parentKey)
		if err != nil {
			// a dangling parent reference contributes nothing
			if storage.IsNotFound(err) {
				return nil
			}

			return errors.Wrap(err, "failed to obtain parent role")
		}

		matched, err := r.matchesScope(ctx, parent, req)
		if err != nil {
			return err
		}

		if matched {
			result.Allowed.Add(parent.AllowedPermissions...)
			result.Denied.Add(parent.DeniedPermissions...)
		}

		parentKey = parent.ParentKey
	}

	return nil
}

// GranularResolver yields a subject's explicit per-subject overrides:
// additional allows and overriding denies
type GranularResolver struct {
	store  storage.Store[GranularPermission]
	logger *zap.Logger
}

func NewGranularResolver(s storage.Store[GranularPermission], logger *zap.Logger) (*GranularResolver, error) {
	if s == nil {
		return nil, ErrNilStore
	}

	if logger != nil {
		logger = logger.Named("[granular_resolver]")
	}

	r := &GranularResolver{
		store:  s,
		logger: logger,
	}

	return r, nil
}

func (r *GranularResolver) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	result := NewResolveResult()

	gp, err := r.store.Get(ctx, req.SubjectKey())
	if err != nil {
		// no override record means no contribution
		if storage.IsNotFound(err) {
			return result, nil
		}

		return result, errors.Wrap(err, "failed to obtain granular permission record")
	}

	result.Allowed.Add(gp.AdditionalPermissions...)
	result.Denied.Add(gp.DeniedPermissions...)

	return result, nil
}
