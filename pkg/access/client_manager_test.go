package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
)

func TestClientManagerAdd(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("app", false))
	a.NoError(err)

	cl, err := c.Clients.AddClient(ctx, access.NewClient("MyClient", "My Client"), "app")
	a.NoError(err)
	a.NotZero(cl.UID)
	a.Equal("app/myclient", cl.TopLevelItem)

	// the subtree root exists as a securable item
	top, err := c.Items.ItemByKey(ctx, cl.TopLevelItem)
	a.NoError(err)
	a.Equal("MyClient", top.Name)

	fetched, err := c.Clients.ClientByID(ctx, "myclient")
	a.NoError(err)
	a.Equal(cl.UID, fetched.UID)

	_, err = c.Clients.ClientByID(ctx, "unknown")
	a.ErrorIs(err, access.ErrClientNotFound)

	_, err = c.Clients.AddClient(ctx, access.NewClient("myclient", "Dupe"), "app")
	a.ErrorIs(err, access.ErrValidationFailed)
}

func TestClientManagerOwnership(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("app", false))
	a.NoError(err)

	cl, err := c.Clients.AddClient(ctx, access.NewClient("myclient", "My Client"), "app")
	a.NoError(err)

	other, err := c.Clients.AddClient(ctx, access.NewClient("otherclient", "Other"), "app")
	a.NoError(err)

	item, err := c.Items.AddChildItem(ctx, cl.TopLevelItem, access.NewSecurableItem("app", "reports", cl.ClientID))
	a.NoError(err)

	a.NoError(c.Clients.VerifyOwnership(ctx, cl.ClientID, item.Key()))
	a.NoError(c.Clients.VerifyOwnership(ctx, cl.ClientID, cl.TopLevelItem))

	err = c.Clients.VerifyOwnership(ctx, other.ClientID, item.Key())
	a.ErrorIs(err, access.ErrItemNotOwnedByClient)
}

func TestClientManagerDelete(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("app", false))
	a.NoError(err)

	cl, err := c.Clients.AddClient(ctx, access.NewClient("myclient", "My Client"), "app")
	a.NoError(err)

	a.NoError(c.Clients.DeleteClient(ctx, cl.ClientID))

	_, err = c.Clients.ClientByID(ctx, cl.ClientID)
	a.ErrorIs(err, access.ErrClientNotFound)
}
