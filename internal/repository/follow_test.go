package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/internal/models"
)

func TestFollowRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	t.Run("follow and membership", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

		following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, following)

		// One edge row serves both directions.
		reverse, err := repo.IsFollowing(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, reverse)
	})

	t.Run("duplicate follow is ignored", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

		var count int64
		require.NoError(t, db.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", alice.ID, bob.ID).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("id projections and counts", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, carol.ID, bob.ID))

		followers, err := repo.FollowerIDs(ctx, bob.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uint{alice.ID, carol.ID}, followers)

		following, err := repo.FollowingIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{bob.ID}, following)

		n, err := repo.CountFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = repo.CountFollowing(ctx, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})

	t.Run("unfollow", func(t *testing.T) {
		require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
		following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.False(t, following)

		// Unfollowing a non-existent edge is a no-op.
		require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	})

	t.Run("delete all for user removes both directions", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, bob.ID, alice.ID))
		require.NoError(t, repo.Follow(ctx, alice.ID, carol.ID))

		_, err := repo.DeleteAllForUser(ctx, alice.ID)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.Follow{}).
			Where("follower_id = ? OR followee_id = ?", alice.ID, alice.ID).
			Count(&count).Error)
		assert.EqualValues(t, 0, count)
	})
}
