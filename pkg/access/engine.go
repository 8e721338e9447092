package access

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Engine merges the contributions of the configured resolvers into
// one effective permission set; an explicit deny from any resolver
// always wins over an allow from any other
type Engine struct {
	resolvers []Resolver
	logger    *zap.Logger
}

func NewEngine(logger *zap.Logger, resolvers ...Resolver) (*Engine, error) {
	if len(resolvers) == 0 {
		return nil, ErrNilResolver
	}

	for _, r := range resolvers {
		if r == nil {
			return nil, ErrNilResolver
		}
	}

	if logger != nil {
		logger = logger.Named("[engine]")
	}

	e := &Engine{
		resolvers: resolvers,
		logger:    logger,
	}

	return e, nil
}

// Resolve runs every resolver and unions their allow and deny sets
func (e *Engine) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	merged := NewResolveResult()

	for _, r := range e.resolvers {
		result, err := r.Resolve(ctx, req)
		if err != nil {
			return merged, errors.Wrap(err, "permission resolution failed")
		}

		for _, p := range result.Allowed {
			merged.Allowed.Add(p)
		}

		for _, p := range result.Denied {
			merged.Denied.Add(p)
		}
	}

	return merged, nil
}

// ResolvePermissions computes the effective permission set for a
// subject as canonical "{grain}/{securableItem}.{name}" strings,
// sorted; permissions denied anywhere are absent regardless of how
// many sources allow them
func (e *Engine) ResolvePermissions(
	ctx context.Context,
	grain string,
	securableItem string,
	subjectID string,
	identityProvider string,
	directGroups []Group,
	includeShared bool,
) ([]string, error) {
	req := ResolveRequest{
		Grain:            grain,
		SecurableItem:    securableItem,
		SubjectID:        subjectID,
		IdentityProvider: identityProvider,
		Groups:           directGroups,
		IncludeShared:    includeShared,
	}

	merged, err := e.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	effective := merged.Allowed.Subtract(merged.Denied)

	if e.logger != nil {
		e.logger.Debug(
			"resolved effective permissions",
			zap.String("grain", grain),
			zap.String("securable_item", securableItem),
			zap.String("subject", SubjectKey(subjectID, identityProvider)),
			zap.Int("allowed", len(merged.Allowed)),
			zap.Int("denied", len(merged.Denied)),
			zap.Int("effective", len(effective)),
		)
	}

	return effective.Strings(), nil
}
