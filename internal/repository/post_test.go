package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mingle/internal/models"
)

func TestPostRepositoryCounts(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	post := seedPost(t, db, alice.ID, "counts")

	require.NoError(t, repo.Like(ctx, alice.ID, post.ID))
	require.NoError(t, repo.Like(ctx, bob.ID, post.ID))
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, AuthorID: bob.ID, Content: "hi"}).Error)

	got, err := repo.GetByID(ctx, post.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.LikesCount)
	assert.EqualValues(t, 1, got.CommentsCount)
	assert.True(t, got.Liked)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Username)

	// A user who has not liked the post sees Liked false.
	got, err = repo.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.False(t, got.Liked)
}

func TestPostRepositoryLikeToggleHelpers(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	post := seedPost(t, db, alice.ID, "likes")

	liked, err := repo.IsLiked(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, repo.Like(ctx, alice.ID, post.ID))
	// Replayed like hits the unique index and is ignored.
	require.NoError(t, repo.Like(ctx, alice.ID, post.ID))

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.Unlike(ctx, alice.ID, post.ID))
	liked, err = repo.IsLiked(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestPostRepositoryList(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	seedPost(t, db, alice.ID, "Go concurrency patterns")
	seedPost(t, db, alice.ID, "Sourdough basics")
	seedPost(t, db, bob.ID, "Going for a run")

	t.Run("search matches title and description", func(t *testing.T) {
		posts, err := repo.List(ctx, "go", 10, 0, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("by author", func(t *testing.T) {
		posts, err := repo.ListByAuthor(ctx, alice.ID, "", 10, 0, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("by authors with empty set", func(t *testing.T) {
		posts, err := repo.ListByAuthors(ctx, nil, "", 10, 0, 0)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("by authors", func(t *testing.T) {
		posts, err := repo.ListByAuthors(ctx, []uint{alice.ID, bob.ID}, "", 2, 0, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("pagination", func(t *testing.T) {
		posts, err := repo.List(ctx, "", 2, 2, 0)
		require.NoError(t, err)
		assert.Len(t, posts, 1)
	})
}

func TestPostRepositoryImageIDsByAuthor(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db, nil)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	withImage := seedPost(t, db, alice.ID, "with image")
	withImage.ImageID = "img-1"
	require.NoError(t, db.Save(withImage).Error)
	seedPost(t, db, alice.ID, "without image")

	ids, err := repo.ImageIDsByAuthor(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"img-1"}, ids)
}

func TestPostRepositoryGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewPostRepository(db, nil)

	_, err := repo.GetByID(context.Background(), 999, 0)
	require.Error(t, err)
	appErr := models.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}
