package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
)

func TestGrainManagerLifecycle(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	g, err := c.Grains.AddGrain(ctx, access.NewGrain("dos", true, "dos.write"))
	a.NoError(err)
	a.True(g.IsShared)

	fetched, err := c.Grains.GrainByName(ctx, "DOS")
	a.NoError(err)
	a.Equal([]string{"dos.write"}, fetched.RequiredWriteScopes)

	fetched.IsShared = false

	fetched, err = c.Grains.UpdateGrain(ctx, fetched)
	a.NoError(err)
	a.False(fetched.IsShared)

	_, err = c.Grains.GrainByName(ctx, "unknown")
	a.ErrorIs(err, access.ErrGrainNotFound)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("app", false))
	a.NoError(err)

	grains, err := c.Grains.Grains(ctx)
	a.NoError(err)
	a.Len(grains, 2)

	a.NoError(c.Grains.DeleteGrain(ctx, "dos"))

	_, err = c.Grains.GrainByName(ctx, "dos")
	a.ErrorIs(err, access.ErrGrainNotFound)
}
