package access

import (
	"context"

	"go.uber.org/zap"
)

// GroupFetcher resolves a group by its identity key; implemented by
// the group manager
type GroupFetcher interface {
	GroupByKey(ctx context.Context, key string) (Group, error)
}

// GroupHierarchy expands a set of directly held group memberships into
// the transitive closure of those groups and all of their ancestors
type GroupHierarchy struct {
	groups GroupFetcher
	logger *zap.Logger
}

func NewGroupHierarchy(groups GroupFetcher, logger *zap.Logger) (*GroupHierarchy, error) {
	if groups == nil {
		return nil, ErrNilGroupManager
	}

	if logger != nil {
		logger = logger.Named("[hierarchy]")
	}

	h := &GroupHierarchy{
		groups: groups,
		logger: logger,
	}

	return h, nil
}

// Expand walks child->parent edges breadth-first, starting from the
// direct set. Groups are deduplicated by their full identity key, so
// same-name groups from different providers or tenants stay distinct.
// A visited set guards against cycles in malformed data.
func (h *GroupHierarchy) Expand(ctx context.Context, direct []Group) ([]Group, error) {
	visited := make(map[string]bool, len(direct))
	expanded := make([]Group, 0, len(direct))

	queue := make([]Group, 0, len(direct))
	for _, g := range direct {
		if key := g.Key(); !visited[key] {
			visited[key] = true
			queue = append(queue, g)
		}
	}

	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]

		expanded = append(expanded, g)

		for _, parentKey := range g.ParentKeys {
			if visited[parentKey] {
				continue
			}

			visited[parentKey] = true

			parent, err := h.groups.GroupByKey(ctx, parentKey)
			if err != nil {
				// a dangling parent reference contributes nothing
				if err == ErrGroupNotFound {
					if h.logger != nil {
						h.logger.Debug(
							"skipping missing parent group",
							zap.String("group", g.StringID()),
							zap.String("parent_key", parentKey),
						)
					}

					continue
				}

				return nil, err
			}

			queue = append(queue, parent)
		}
	}

	return expanded, nil
}
