package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mingle/internal/models"
	"mingle/internal/repository"
)

func newGraphService(t *testing.T) (*GraphService, *gorm.DB, *mediaStub) {
	t.Helper()
	db := newTestDB(t)
	store := &mediaStub{}
	svc := NewGraphService(db, nil,
		repository.NewUserRepository(db, nil),
		repository.NewPostRepository(db, nil),
		repository.NewFollowRepository(db),
		store)
	return svc, db, store
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func TestFollowOrUnfollowToggle(t *testing.T) {
	svc, db, _ := newGraphService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	action, err := svc.FollowOrUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionFollowed, action)
	assert.EqualValues(t, 1, countRows(t, db, &models.Follow{}, "follower_id = ? AND followee_id = ?", alice.ID, bob.ID))

	// The reverse direction is untouched.
	assert.EqualValues(t, 0, countRows(t, db, &models.Follow{}, "follower_id = ? AND followee_id = ?", bob.ID, alice.ID))

	// Toggling again restores the original state exactly.
	action, err = svc.FollowOrUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionUnfollowed, action)
	assert.EqualValues(t, 0, countRows(t, db, &models.Follow{}, "follower_id = ?", alice.ID))
}

func TestFollowOrUnfollowSymmetry(t *testing.T) {
	svc, db, _ := newGraphService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := svc.FollowOrUnfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	follows := repository.NewFollowRepository(db)
	followers, err := follows.FollowerIDs(ctx, bob.ID)
	require.NoError(t, err)
	following, err := follows.FollowingIDs(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, []uint{alice.ID}, followers)
	assert.Equal(t, []uint{bob.ID}, following)
}

func TestFollowOrUnfollowMissingTarget(t *testing.T) {
	svc, db, _ := newGraphService(t)
	alice := createTestUser(t, db, "alice")

	_, err := svc.FollowOrUnfollow(context.Background(), alice.ID, 9999)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestFollowOrUnfollowSelf(t *testing.T) {
	svc, db, _ := newGraphService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	action, err := svc.FollowOrUnfollow(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionFollowed, action)

	action, err = svc.FollowOrUnfollow(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ActionUnfollowed, action)
}

func TestDeleteUserCascade(t *testing.T) {
	svc, db, store := newGraphService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	bob.AvatarID = "avatars-bob"
	require.NoError(t, db.Save(bob).Error)

	bobPost := createTestPost(t, db, bob.ID, "posts-bob-1")
	alicePost := createTestPost(t, db, alice.ID, "posts-alice-1")

	// Alice engages with Bob's post, Bob engages with Alice's.
	require.NoError(t, db.Create(&models.Like{UserID: alice.ID, PostID: bobPost.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: bobPost.ID, AuthorID: alice.ID, Content: "nice"}).Error)
	require.NoError(t, db.Create(&models.Like{UserID: bob.ID, PostID: alicePost.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: alicePost.ID, AuthorID: bob.ID, Content: "thanks"}).Error)

	// Edges in both directions.
	require.NoError(t, db.Create(&models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: bob.ID, FolloweeID: alice.ID}).Error)

	require.NoError(t, svc.DeleteUserCascade(ctx, bob.ID))

	assert.EqualValues(t, 0, countRows(t, db, &models.User{}, "id = ?", bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "author_id = ?", bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Like{}, "post_id = ?", bobPost.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Comment{}, "post_id = ?", bobPost.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Like{}, "user_id = ?", bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Comment{}, "author_id = ?", bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Follow{}, "follower_id = ? OR followee_id = ?", bob.ID, bob.ID))

	// Alice survives untouched apart from her cleaned references.
	assert.EqualValues(t, 1, countRows(t, db, &models.User{}, "id = ?", alice.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Post{}, "id = ?", alicePost.ID))

	assert.ElementsMatch(t, []string{"posts-bob-1", "avatars-bob"}, store.destroyed)
}

func TestDeleteUserCascadeProceedsOnMediaFailure(t *testing.T) {
	svc, db, store := newGraphService(t)
	store.failDestroy = true

	bob := createTestUser(t, db, "bob")
	bob.AvatarID = "avatars-bob"
	require.NoError(t, db.Save(bob).Error)
	createTestPost(t, db, bob.ID, "posts-bob-1")

	require.NoError(t, svc.DeleteUserCascade(context.Background(), bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.User{}, "id = ?", bob.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "author_id = ?", bob.ID))
}

func TestDeleteUserCascadeNotFound(t *testing.T) {
	svc, _, _ := newGraphService(t)
	err := svc.DeleteUserCascade(context.Background(), 424242)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestDeletePostCascade(t *testing.T) {
	svc, db, store := newGraphService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	post := createTestPost(t, db, alice.ID, "posts-alice-1")
	keeper := createTestPost(t, db, alice.ID, "posts-alice-2")

	require.NoError(t, db.Create(&models.Like{UserID: bob.ID, PostID: post.ID}).Error)
	require.NoError(t, db.Create(&models.Comment{PostID: post.ID, AuthorID: bob.ID, Content: "hi"}).Error)

	require.NoError(t, svc.DeletePostCascade(ctx, post.ID, alice.ID, false))

	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "id = ?", post.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Like{}, "post_id = ?", post.ID))
	assert.EqualValues(t, 0, countRows(t, db, &models.Comment{}, "post_id = ?", post.ID))
	assert.EqualValues(t, 1, countRows(t, db, &models.Post{}, "id = ?", keeper.ID))
	assert.Equal(t, []string{"posts-alice-1"}, store.destroyed)
}

func TestDeletePostCascadeOwnership(t *testing.T) {
	svc, db, _ := newGraphService(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	mallory := createTestUser(t, db, "mallory")
	post := createTestPost(t, db, alice.ID, "")

	err := svc.DeletePostCascade(ctx, post.ID, mallory.ID, false)
	assertAppErrorCode(t, err, models.CodeForbidden)
	assert.EqualValues(t, 1, countRows(t, db, &models.Post{}, "id = ?", post.ID))

	// The admin path bypasses the ownership check.
	require.NoError(t, svc.DeletePostCascade(ctx, post.ID, mallory.ID, true))
	assert.EqualValues(t, 0, countRows(t, db, &models.Post{}, "id = ?", post.ID))
}

func TestDeletePostCascadeNotFound(t *testing.T) {
	svc, db, _ := newGraphService(t)
	alice := createTestUser(t, db, "alice")

	err := svc.DeletePostCascade(context.Background(), 999, alice.ID, false)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
