package access

import (
	"context"

	"github.com/agubarev/perimeter/pkg/audit"
	"github.com/agubarev/perimeter/pkg/util"
)

// CoreForTesting returns a fully wired in-memory core with a capturing
// audit sink for testing
func CoreForTesting() (*Core, *audit.MemorySink, context.Context, error) {
	ctx := context.Background()

	sink := audit.NewMemorySink()

	logger, err := util.DefaultLogger(true, "")
	if err != nil {
		return nil, nil, nil, err
	}

	cfg := DefaultConfig()
	cfg.Sink = sink
	cfg.Logger = logger

	c, err := NewCore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return c, sink, ctx, nil
}

// SeedScope registers a grain, a securable item under it and a set of
// named permissions, returning the created permissions
func SeedScope(ctx context.Context, c *Core, grain string, isShared bool, item string, names ...string) ([]Permission, error) {
	if _, err := c.Grains.AddGrain(ctx, NewGrain(grain, isShared)); err != nil {
		return nil, err
	}

	if _, err := c.Items.AddTopLevelItem(ctx, NewSecurableItem(grain, item, "test-client")); err != nil {
		return nil, err
	}

	ps := make([]Permission, 0, len(names))

	for _, name := range names {
		p, err := c.Permissions.AddPermission(ctx, NewPermission(grain, item, name))
		if err != nil {
			return nil, err
		}

		ps = append(ps, p)
	}

	return ps, nil
}
