package service

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"mingle/internal/cache"
	"mingle/internal/models"
	"mingle/internal/observability"
	"mingle/internal/repository"
)

// LikeAction reports which side of a like toggle ran.
type LikeAction string

const (
	ActionLiked   LikeAction = "liked"
	ActionUnliked LikeAction = "unliked"
)

// CommentAction reports whether an upsert created or updated the comment.
type CommentAction string

const (
	CommentCreated CommentAction = "created"
	CommentUpdated CommentAction = "updated"
)

const maxCommentLength = 2000

// InteractionService owns likes and comments on posts.
type InteractionService struct {
	rdb      *redis.Client
	posts    repository.PostRepository
	comments repository.CommentRepository
}

// NewInteractionService returns an InteractionService.
func NewInteractionService(rdb *redis.Client, posts repository.PostRepository, comments repository.CommentRepository) *InteractionService {
	return &InteractionService{rdb: rdb, posts: posts, comments: comments}
}

// ToggleLike likes the post, or removes the like when one exists. A pair of
// calls restores the original state.
func (s *InteractionService) ToggleLike(ctx context.Context, postID, userID uint) (LikeAction, error) {
	if _, err := s.posts.GetByID(ctx, postID, userID); err != nil {
		return "", err
	}

	liked, err := s.posts.IsLiked(ctx, userID, postID)
	if err != nil {
		return "", err
	}

	var action LikeAction
	if liked {
		if err := s.posts.Unlike(ctx, userID, postID); err != nil {
			return "", err
		}
		action = ActionUnliked
	} else {
		if err := s.posts.Like(ctx, userID, postID); err != nil {
			return "", err
		}
		action = ActionLiked
	}

	observability.GraphToggles.WithLabelValues(string(action)).Inc()
	cache.Invalidate(ctx, s.rdb, cache.PostKey(postID))
	return action, nil
}

// UpsertComment sets the author's comment on the post. An author has at most
// one comment per post; commenting again replaces the text in place.
func (s *InteractionService) UpsertComment(ctx context.Context, postID, authorID uint, content string) (*models.Comment, CommentAction, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, "", models.NewValidationError("Comment text is required")
	}
	if len(content) > maxCommentLength {
		return nil, "", models.NewValidationError("Comment text is too long")
	}

	if _, err := s.posts.GetByID(ctx, postID, authorID); err != nil {
		return nil, "", err
	}

	existing, err := s.comments.GetByPostAndAuthor(ctx, postID, authorID)
	if err != nil {
		return nil, "", err
	}

	if existing != nil {
		existing.Content = content
		if err := s.comments.Update(ctx, existing); err != nil {
			return nil, "", err
		}
		cache.Invalidate(ctx, s.rdb, cache.PostKey(postID))
		return existing, CommentUpdated, nil
	}

	comment := &models.Comment{PostID: postID, AuthorID: authorID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, "", err
	}
	cache.Invalidate(ctx, s.rdb, cache.PostKey(postID))
	return comment, CommentCreated, nil
}

// DeleteComment removes a comment from the post. The post author deletes any
// comment and must name it by id; every other requester deletes their own
// comment and the id is ignored. Deleting a comment that is not there is a
// silent no-op.
func (s *InteractionService) DeleteComment(ctx context.Context, postID, requesterID, commentID uint) error {
	post, err := s.posts.GetByID(ctx, postID, requesterID)
	if err != nil {
		return err
	}

	if post.AuthorID == requesterID {
		if commentID == 0 {
			return models.NewValidationError("Comment ID is required")
		}
		comment, err := s.comments.GetByID(ctx, commentID)
		if err != nil {
			if appErr := models.AsAppError(err); appErr != nil && appErr.Code == models.CodeNotFound {
				return nil
			}
			return err
		}
		if comment.PostID != postID {
			return nil
		}
		if err := s.comments.Delete(ctx, comment.ID); err != nil {
			return err
		}
		cache.Invalidate(ctx, s.rdb, cache.PostKey(postID))
		return nil
	}

	if _, err := s.comments.DeleteByPostAndAuthor(ctx, postID, requesterID); err != nil {
		return err
	}
	cache.Invalidate(ctx, s.rdb, cache.PostKey(postID))
	return nil
}

// ListComments returns the post's comments, oldest first.
func (s *InteractionService) ListComments(ctx context.Context, postID, currentUserID uint) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID, currentUserID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}
