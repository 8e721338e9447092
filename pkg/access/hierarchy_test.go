package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
)

func TestHierarchyExpandTransitive(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	grandparent, err := c.Groups.AddGroup(ctx, access.NewGroup("Org", "", "t1", access.GSCustom))
	a.NoError(err)

	parent, err := c.Groups.AddGroup(ctx, access.NewGroup("Project-X", "", "t1", access.GSCustom))
	a.NoError(err)

	child, err := c.Groups.AddGroup(ctx, access.NewGroup("Directory-Eng", "aad", "t1", access.GSDirectory))
	a.NoError(err)

	a.NoError(c.Groups.AddChildGroup(ctx, grandparent.Key(), parent.Key()))
	a.NoError(c.Groups.AddChildGroup(ctx, parent.Key(), child.Key()))

	child, err = c.Groups.GroupByKey(ctx, child.Key())
	a.NoError(err)

	expanded, err := c.Hierarchy.Expand(ctx, []access.Group{child})
	a.NoError(err)
	a.Len(expanded, 3)

	keys := make(map[string]bool)
	for _, g := range expanded {
		keys[g.Key()] = true
	}

	a.True(keys[child.Key()])
	a.True(keys[parent.Key()])
	a.True(keys[grandparent.Key()])
}

func TestHierarchyExpandKeepsSameNameGroupsDistinct(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	g1, err := c.Groups.AddGroup(ctx, access.NewGroup("Engineers", "aad", "t1", access.GSDirectory))
	a.NoError(err)

	g2, err := c.Groups.AddGroup(ctx, access.NewGroup("Engineers", "okta", "t1", access.GSDirectory))
	a.NoError(err)

	g3, err := c.Groups.AddGroup(ctx, access.NewGroup("Engineers", "aad", "t2", access.GSDirectory))
	a.NoError(err)

	expanded, err := c.Hierarchy.Expand(ctx, []access.Group{g1, g2, g3})
	a.NoError(err)
	a.Len(expanded, 3)

	// identical entries do collapse
	expanded, err = c.Hierarchy.Expand(ctx, []access.Group{g1, g1, g1})
	a.NoError(err)
	a.Len(expanded, 1)
}

func TestHierarchyExpandToleratesCycles(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	g1, err := c.Groups.AddGroup(ctx, access.NewGroup("A", "", "t1", access.GSCustom))
	a.NoError(err)

	g2, err := c.Groups.AddGroup(ctx, access.NewGroup("B", "", "t1", access.GSCustom))
	a.NoError(err)

	// forging a cycle directly, bypassing the manager's guard
	g1.ParentKeys = append(g1.ParentKeys, g2.Key())
	g1, err = c.Groups.UpdateGroup(ctx, g1)
	a.NoError(err)

	g2.ParentKeys = append(g2.ParentKeys, g1.Key())
	g2, err = c.Groups.UpdateGroup(ctx, g2)
	a.NoError(err)

	expanded, err := c.Hierarchy.Expand(ctx, []access.Group{g1})
	a.NoError(err)
	a.Len(expanded, 2)
}

func TestHierarchyExpandSkipsDanglingParents(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	g, err := c.Groups.AddGroup(ctx, access.NewGroup("Orphaned", "", "t1", access.GSCustom))
	a.NoError(err)

	g.ParentKeys = append(g.ParentKeys, access.GroupKey("long-gone", "", "t1"))
	g, err = c.Groups.UpdateGroup(ctx, g)
	a.NoError(err)

	expanded, err := c.Hierarchy.Expand(ctx, []access.Group{g})
	a.NoError(err)
	a.Len(expanded, 1)
}
