package service

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"mingle/internal/cache"
	"mingle/internal/media"
	"mingle/internal/models"
	"mingle/internal/repository"
)

// DefaultPostPageSize is the feed page size when the client does not ask for
// one.
const DefaultPostPageSize = 5

// PostService owns post creation, listing and updates. Deletion lives on
// GraphService because it cascades.
type PostService struct {
	rdb     *redis.Client
	posts   repository.PostRepository
	follows repository.FollowRepository
	media   media.Store
}

// NewPostService returns a PostService.
func NewPostService(rdb *redis.Client, posts repository.PostRepository, follows repository.FollowRepository, store media.Store) *PostService {
	return &PostService{rdb: rdb, posts: posts, follows: follows, media: store}
}

// CreatePostInput carries the new-post form. Image is the raw upload and is
// required, as are title and description.
type CreatePostInput struct {
	AuthorID    uint
	Title       string
	Description string
	Image       []byte
}

// Create stores the post image and the post record.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.Title == "" || in.Description == "" || len(in.Image) == 0 {
		return nil, models.NewValidationError("Please enter all fields")
	}

	asset, err := s.media.Upload(ctx, in.Image, "posts")
	if err != nil {
		return nil, upstreamOr(err, "Could not store post image")
	}

	post := &models.Post{
		Title:       in.Title,
		Description: in.Description,
		AuthorID:    in.AuthorID,
		ImageID:     asset.PublicID,
		ImageURL:    asset.URL,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	cache.Invalidate(ctx, s.rdb, cache.RecentPostsKey)
	return post, nil
}

// List returns public posts, newest first, with title/description search. The
// unfiltered first page is served through the cache.
func (s *PostService) List(ctx context.Context, search string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostPageSize
	}

	if search == "" && offset == 0 && limit == DefaultPostPageSize && currentUserID == 0 {
		return cache.Aside(ctx, s.rdb, cache.RecentPostsKey, cache.RecentPostsTTL, func() ([]*models.Post, error) {
			return s.posts.List(ctx, "", limit, 0, 0)
		})
	}
	return s.posts.List(ctx, search, limit, offset, currentUserID)
}

// ListByAuthor returns one author's posts with the same search semantics.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, search string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostPageSize
	}
	return s.posts.ListByAuthor(ctx, authorID, search, limit, offset, currentUserID)
}

// Feed returns posts from the authors the user follows.
func (s *PostService) Feed(ctx context.Context, userID uint, search string, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostPageSize
	}
	following, err := s.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.posts.ListByAuthors(ctx, following, search, limit, offset, userID)
}

// Get returns a single post with like/comment counts.
func (s *PostService) Get(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID, currentUserID)
}

// UpdatePostInput carries an edit. Image is optional; when present the old
// asset is replaced.
type UpdatePostInput struct {
	PostID      uint
	ActorID     uint
	Title       string
	Description string
	Image       []byte
}

// Update edits a post. Only the author may edit.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, in.PostID, in.ActorID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != in.ActorID {
		return nil, models.NewForbiddenError("You are not the owner of this post")
	}

	if in.Title != "" {
		post.Title = in.Title
	}
	if in.Description != "" {
		post.Description = in.Description
	}

	if len(in.Image) > 0 {
		asset, err := s.media.Upload(ctx, in.Image, "posts")
		if err != nil {
			return nil, upstreamOr(err, "Could not store post image")
		}
		old := post.ImageID
		post.ImageID = asset.PublicID
		post.ImageURL = asset.URL
		if old != "" && old != asset.PublicID {
			if err := s.media.Destroy(ctx, old); err != nil {
				slog.WarnContext(ctx, "old post image destroy failed", "public_id", old, "error", err)
			}
		}
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, s.rdb, cache.PostKey(post.ID), cache.RecentPostsKey)
	return post, nil
}
