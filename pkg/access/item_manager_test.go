package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
	"github.com/agubarev/perimeter/pkg/storage"
)

func TestItemManagerTree(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	top, err := c.Items.AddTopLevelItem(ctx, access.NewSecurableItem("app", "myclient", "myclient"))
	a.NoError(err)
	a.Equal("myclient", top.Path)
	a.Equal("app/myclient", top.Key())

	child, err := c.Items.AddChildItem(ctx, top.Key(), access.NewSecurableItem("app", "reports", "myclient"))
	a.NoError(err)
	a.Equal("myclient/reports", child.Path)

	grandchild, err := c.Items.AddChildItem(ctx, child.Key(), access.NewSecurableItem("app", "quarterly", "myclient"))
	a.NoError(err)
	a.Equal("myclient/reports/quarterly", grandchild.Path)

	top, err = c.Items.ItemByKey(ctx, "APP/MyClient")
	a.NoError(err)
	a.True(top.HasChild("myclient/reports"))

	// sibling names must be unique
	_, err = c.Items.AddChildItem(ctx, top.Key(), access.NewSecurableItem("app", "reports", "myclient"))
	a.True(storage.IsAlreadyExists(err))

	// same name is fine under a different parent
	other, err := c.Items.AddChildItem(ctx, child.Key(), access.NewSecurableItem("app", "myclient", "myclient"))
	a.NoError(err)
	a.Equal("myclient/reports/myclient", other.Path)
}

func TestItemManagerGrainMismatch(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	top, err := c.Items.AddTopLevelItem(ctx, access.NewSecurableItem("app", "myclient", "myclient"))
	a.NoError(err)

	_, err = c.Items.AddChildItem(ctx, top.Key(), access.NewSecurableItem("dos", "datamarts", "myclient"))
	a.ErrorIs(err, access.ErrIncompatibleState)
}

func TestItemManagerRecursiveDelete(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	top, err := c.Items.AddTopLevelItem(ctx, access.NewSecurableItem("app", "myclient", "myclient"))
	a.NoError(err)

	child, err := c.Items.AddChildItem(ctx, top.Key(), access.NewSecurableItem("app", "reports", "myclient"))
	a.NoError(err)

	grandchild, err := c.Items.AddChildItem(ctx, child.Key(), access.NewSecurableItem("app", "quarterly", "myclient"))
	a.NoError(err)

	a.NoError(c.Items.DeleteItem(ctx, top.Key()))

	for _, key := range []string{top.Key(), child.Key(), grandchild.Key()} {
		_, err = c.Items.ItemByKey(ctx, key)
		a.ErrorIs(err, access.ErrItemNotFound)
	}
}

func TestItemManagerItemsByGrain(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Items.AddTopLevelItem(ctx, access.NewSecurableItem("app", "one", "myclient"))
	a.NoError(err)

	_, err = c.Items.AddTopLevelItem(ctx, access.NewSecurableItem("app", "two", "myclient"))
	a.NoError(err)

	_, err = c.Items.AddTopLevelItem(ctx, access.NewSecurableItem("dos", "three", "myclient"))
	a.NoError(err)

	items, err := c.Items.ItemsByGrain(ctx, "APP")
	a.NoError(err)
	a.Len(items, 2)
}
