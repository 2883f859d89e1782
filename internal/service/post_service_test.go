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

func newPostService(t *testing.T) (*PostService, *gorm.DB, *mediaStub) {
	t.Helper()
	db := newTestDB(t)
	store := &mediaStub{}
	svc := NewPostService(nil,
		repository.NewPostRepository(db, nil),
		repository.NewFollowRepository(db),
		store)
	return svc, db, store
}

func TestCreatePostValidation(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	cases := map[string]CreatePostInput{
		"missing title":       {AuthorID: alice.ID, Description: "d", Image: []byte("x")},
		"missing description": {AuthorID: alice.ID, Title: "t", Image: []byte("x")},
		"missing image":       {AuthorID: alice.ID, Title: "t", Description: "d"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, in)
			assertAppErrorCode(t, err, models.CodeValidation)
		})
	}
}

func TestCreatePost(t *testing.T) {
	svc, db, store := newPostService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	post, err := svc.Create(ctx, CreatePostInput{
		AuthorID:    alice.ID,
		Title:       "hello",
		Description: "world",
		Image:       []byte("image bytes"),
	})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "posts-1", post.ImageID)
	assert.Equal(t, 1, store.uploads)

	got, err := svc.Get(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Title)
	assert.Equal(t, alice.ID, got.AuthorID)
}

func TestListPostsSearchAndOrder(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")

	require.NoError(t, db.Create(&models.Post{Title: "Go generics", Description: "deep dive", AuthorID: alice.ID}).Error)
	require.NoError(t, db.Create(&models.Post{Title: "Cooking", Description: "pasta with go-to sauce", AuthorID: alice.ID}).Error)
	require.NoError(t, db.Create(&models.Post{Title: "Gardening", Description: "tomatoes", AuthorID: alice.ID}).Error)

	posts, err := svc.List(ctx, "go", 10, 0, alice.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	all, err := svc.List(ctx, "", 10, 0, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "Gardening", all[0].Title)
}

func TestFeedOnlyFollowedAuthors(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	createTestPost(t, db, bob.ID, "")
	createTestPost(t, db, carol.ID, "")

	require.NoError(t, db.Create(&models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID}).Error)

	feed, err := svc.Feed(ctx, alice.ID, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, bob.ID, feed[0].AuthorID)

	// No follows means an empty feed, not everyone's posts.
	feed, err = svc.Feed(ctx, carol.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestUpdatePostOwnership(t *testing.T) {
	svc, db, _ := newPostService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	mallory := createTestUser(t, db, "mallory")
	post := createTestPost(t, db, alice.ID, "")

	_, err := svc.Update(ctx, UpdatePostInput{PostID: post.ID, ActorID: mallory.ID, Title: "hacked"})
	assertAppErrorCode(t, err, models.CodeForbidden)

	got, err := svc.Get(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "a title", got.Title)
}

func TestUpdatePostReplacesImage(t *testing.T) {
	svc, db, store := newPostService(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	post := createTestPost(t, db, alice.ID, "posts-old")

	updated, err := svc.Update(ctx, UpdatePostInput{
		PostID:  post.ID,
		ActorID: alice.ID,
		Title:   "new title",
		Image:   []byte("new image"),
	})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "posts-1", updated.ImageID)
	assert.Equal(t, []string{"posts-old"}, store.destroyed)
}
