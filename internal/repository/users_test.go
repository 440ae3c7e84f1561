package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/msgapps-backend/internal/repository"
	"github.com/rocketscienceinc/msgapps-backend/testing/suite"
)

func TestUserRepository(t *testing.T) {
	ctx, s := suite.New(t)

	users := repository.NewUserRepository(s.Storage)

	t.Run("empty allowlist means open access", func(t *testing.T) {
		// Given: a fresh database with no allowlist

		// Then: any user is allowed
		allowed, err := users.Allowed(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, allowed)

		list, err := users.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("allow restricts access to listed users", func(t *testing.T) {
		// When: one user is allowed
		require.NoError(t, users.Allow(ctx, "alice"))

		// Then: the listed user passes and everyone else is rejected
		allowed, err := users.Allowed(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = users.Allowed(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("allow is idempotent", func(t *testing.T) {
		require.NoError(t, users.Allow(ctx, "alice"))

		list, err := users.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, list)
	})

	t.Run("deny removes a user", func(t *testing.T) {
		require.NoError(t, users.Allow(ctx, "bob"))
		require.NoError(t, users.Deny(ctx, "bob"))

		allowed, err := users.Allowed(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("denying the last user reopens access", func(t *testing.T) {
		require.NoError(t, users.Deny(ctx, "alice"))

		allowed, err := users.Allowed(ctx, "anyone")
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
