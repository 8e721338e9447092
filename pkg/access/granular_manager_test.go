package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
	"github.com/agubarev/perimeter/pkg/storage"
)

func TestGranularManagerUpsert(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	gp := access.NewGranularPermission("alice", "aad")
	gp.DeniedPermissions = append(gp.DeniedPermissions, access.NewPermission("app", "ps", "manage"))

	_, err = c.Granular.SetGranularPermission(ctx, gp)
	a.NoError(err)

	fetched, err := c.Granular.GranularBySubject(ctx, "ALICE", "AAD")
	a.NoError(err)
	a.Len(fetched.DeniedPermissions, 1)

	// a subject holds at most one record; setting again replaces it
	gp.DeniedPermissions = nil
	gp.AdditionalPermissions = append(gp.AdditionalPermissions, access.NewPermission("app", "ps", "read"))

	_, err = c.Granular.SetGranularPermission(ctx, gp)
	a.NoError(err)

	fetched, err = c.Granular.GranularBySubject(ctx, "alice", "aad")
	a.NoError(err)
	a.Empty(fetched.DeniedPermissions)
	a.Len(fetched.AdditionalPermissions, 1)
}

func TestGranularManagerDelete(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Granular.SetGranularPermission(ctx, access.NewGranularPermission("alice", "aad"))
	a.NoError(err)

	a.NoError(c.Granular.DeleteGranular(ctx, "alice", "aad"))

	_, err = c.Granular.GranularBySubject(ctx, "alice", "aad")
	a.True(storage.IsNotFound(err))

	_, err = c.Granular.SetGranularPermission(ctx, access.NewGranularPermission("", ""))
	a.ErrorIs(err, access.ErrValidationFailed)
}
