package access_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
)

func TestValidationCollectsEveryViolation(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	// all three identity fields missing at once
	_, err = c.Permissions.AddPermission(ctx, access.NewPermission("", "", ""))
	a.Error(err)

	var ve *access.ValidationError
	a.True(errors.As(err, &ve))
	a.Len(ve.Violations, 3)

	// deterministic order
	a.Equal("Grain", ve.Violations[0].Field)
	a.Equal("Name", ve.Violations[1].Field)
	a.Equal("SecurableItem", ve.Violations[2].Field)
}

func TestValidationUniquenessIgnoresCase(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("App", false))
	a.NoError(err)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("APP", true))
	a.ErrorIs(err, access.ErrValidationFailed)
}

func TestValidationUniquenessSkipsRetired(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Grains.AddGrain(ctx, access.NewGrain("app", false))
	a.NoError(err)

	a.NoError(c.Grains.DeleteGrain(ctx, "app"))

	// a retired grain never blocks the name
	g, err := c.Grains.AddGrain(ctx, access.NewGrain("app", true))
	a.NoError(err)
	a.True(g.IsShared)
}

func TestValidationUserIdentity(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	_, err = c.Users.AddUser(ctx, access.NewUser("alice", ""))
	a.ErrorIs(err, access.ErrValidationFailed)

	_, err = c.Users.AddUser(ctx, access.NewUser("alice", "aad"))
	a.NoError(err)

	// the subject key folds, so a re-spelled duplicate is rejected
	_, err = c.Users.AddUser(ctx, access.NewUser("ALICE", "AAD"))
	a.ErrorIs(err, access.ErrValidationFailed)
}

func TestValidationErrorMessage(t *testing.T) {
	a := assert.New(t)

	e := &access.ValidationError{
		Violations: []access.Violation{
			{Field: "Name", Message: "non zero value required"},
		},
	}

	a.Contains(e.Error(), "Name: non zero value required")
	a.ErrorIs(e, access.ErrValidationFailed)
}
