package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agubarev/perimeter/pkg/access"
)

func TestUserManagerAddGet(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	u, err := c.Users.AddUser(ctx, access.NewUser("Alice", "AAD"))
	a.NoError(err)
	a.NotZero(u.CreatedAt)

	// lookups fold the subject key
	fetched, err := c.Users.UserByKey(ctx, "alice:aad")
	a.NoError(err)
	a.Equal("Alice", fetched.SubjectID)

	_, err = c.Users.UserByKey(ctx, "bob:aad")
	a.ErrorIs(err, access.ErrUserNotFound)
}

func TestUserManagerAssignments(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	u, err := c.Users.AddUser(ctx, access.NewUser("alice", "aad"))
	a.NoError(err)

	u, err = c.Users.AssignRole(ctx, u.Key(), "app/ps.admin")
	a.NoError(err)

	// idempotent
	u, err = c.Users.AssignRole(ctx, u.Key(), "app/ps.admin")
	a.NoError(err)
	a.Len(u.RoleKeys, 1)

	groupKey := access.GroupKey("Admins", "aad", "t1")

	u, err = c.Users.JoinGroup(ctx, u.Key(), groupKey)
	a.NoError(err)
	a.True(u.MemberOf(groupKey))

	u, err = c.Users.LeaveGroup(ctx, u.Key(), groupKey)
	a.NoError(err)
	a.False(u.MemberOf(groupKey))
}

func TestUserManagerDelete(t *testing.T) {
	a := assert.New(t)

	c, _, ctx, err := access.CoreForTesting()
	a.NoError(err)

	u, err := c.Users.AddUser(ctx, access.NewUser("alice", "aad"))
	a.NoError(err)

	a.NoError(c.Users.DeleteUser(ctx, u.Key()))

	_, err = c.Users.UserByKey(ctx, u.Key())
	a.ErrorIs(err, access.ErrUserNotFound)
}
