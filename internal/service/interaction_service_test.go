package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mingle/internal/models"
	"mingle/internal/repository"
)

func newInteractionService(t *testing.T) (*InteractionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewInteractionService(nil,
		repository.NewPostRepository(db, nil),
		repository.NewCommentRepository(db))
	return svc, db
}

func TestToggleLike(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, bob.ID, "")

	action, err := svc.ToggleLike(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionLiked, action)

	got, err := repository.NewPostRepository(db, nil).GetByID(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	// The toggle pair restores the pre-state.
	action, err = svc.ToggleLike(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionUnliked, action)

	got, err = repository.NewPostRepository(db, nil).GetByID(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.LikesCount)
	assert.False(t, got.Liked)
}

func TestToggleLikeMissingPost(t *testing.T) {
	svc, db := newInteractionService(t)
	alice := createTestUser(t, db, "alice")

	_, err := svc.ToggleLike(context.Background(), 999, alice.ID)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestUpsertCommentCreatesThenUpdates(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, bob.ID, "")

	first, action, err := svc.UpsertComment(ctx, post.ID, alice.ID, "first take")
	require.NoError(t, err)
	assert.Equal(t, CommentCreated, action)

	second, action, err := svc.UpsertComment(ctx, post.ID, alice.ID, "second take")
	require.NoError(t, err)
	assert.Equal(t, CommentUpdated, action)
	assert.Equal(t, first.ID, second.ID)

	var comments []models.Comment
	require.NoError(t, db.Where("post_id = ? AND author_id = ?", post.ID, alice.ID).Find(&comments).Error)
	require.Len(t, comments, 1)
	assert.Equal(t, "second take", comments[0].Content)
}

func TestUpsertCommentValidation(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	post := createTestPost(t, db, alice.ID, "")

	_, _, err := svc.UpsertComment(ctx, post.ID, alice.ID, "   ")
	assertAppErrorCode(t, err, models.CodeValidation)

	_, _, err = svc.UpsertComment(ctx, post.ID, alice.ID, strings.Repeat("x", maxCommentLength+1))
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestUpsertCommentMissingPost(t *testing.T) {
	svc, db := newInteractionService(t)
	alice := createTestUser(t, db, "alice")

	_, _, err := svc.UpsertComment(context.Background(), 999, alice.ID, "hello")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestDeleteCommentAuthorRequiresID(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	post := createTestPost(t, db, alice.ID, "")

	err := svc.DeleteComment(ctx, post.ID, alice.ID, 0)
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestDeleteCommentAuthorDeletesAny(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "")

	comment, _, err := svc.UpsertComment(ctx, post.ID, bob.ID, "something rude")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteComment(ctx, post.ID, alice.ID, comment.ID))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDeleteCommentNonAuthorDeletesOwn(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	post := createTestPost(t, db, alice.ID, "")

	bobComment, _, err := svc.UpsertComment(ctx, post.ID, bob.ID, "bob's comment")
	require.NoError(t, err)
	carolComment, _, err := svc.UpsertComment(ctx, post.ID, carol.ID, "carol's comment")
	require.NoError(t, err)

	// Bob passes Carol's comment id, but only his own comment goes away.
	require.NoError(t, svc.DeleteComment(ctx, post.ID, bob.ID, carolComment.ID))

	var remaining []models.Comment
	require.NoError(t, db.Where("post_id = ?", post.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, carolComment.ID, remaining[0].ID)
	assert.NotEqual(t, bobComment.ID, remaining[0].ID)
}

func TestDeleteCommentMissingIsSilentNoop(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "")

	// Author names a comment that does not exist.
	assert.NoError(t, svc.DeleteComment(ctx, post.ID, alice.ID, 424242))

	// Non-author with no comment on the post.
	assert.NoError(t, svc.DeleteComment(ctx, post.ID, bob.ID, 0))
}

func TestDeleteCommentFromOtherPostIsNoop(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	postA := createTestPost(t, db, alice.ID, "")
	postB := createTestPost(t, db, alice.ID, "")

	comment, _, err := svc.UpsertComment(ctx, postB.ID, bob.ID, "on the other post")
	require.NoError(t, err)

	// Author of postA names a comment that lives on postB: nothing happens.
	require.NoError(t, svc.DeleteComment(ctx, postA.ID, alice.ID, comment.ID))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestListComments(t *testing.T) {
	svc, db := newInteractionService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "")

	_, _, err := svc.UpsertComment(ctx, post.ID, alice.ID, "first")
	require.NoError(t, err)
	_, _, err = svc.UpsertComment(ctx, post.ID, bob.ID, "second")
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}
