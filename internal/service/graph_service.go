// Package service implements the application's business logic on top of the
// repositories.
package service

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mingle/internal/cache"
	"mingle/internal/media"
	"mingle/internal/models"
	"mingle/internal/observability"
	"mingle/internal/repository"
)

// GraphAction reports which side of a follow toggle ran.
type GraphAction string

const (
	ActionFollowed   GraphAction = "followed"
	ActionUnfollowed GraphAction = "unfollowed"
)

// GraphService owns the follow graph and the deletion cascades. Cascades
// destroy media assets first (best-effort, outside the transaction) and then
// remove every dependent record in a single transaction, so the record state
// is all-or-nothing even when the media store misbehaves.
type GraphService struct {
	db      *gorm.DB
	rdb     *redis.Client
	users   repository.UserRepository
	posts   repository.PostRepository
	follows repository.FollowRepository
	media   media.Store
}

// NewGraphService returns a GraphService.
func NewGraphService(db *gorm.DB, rdb *redis.Client, users repository.UserRepository, posts repository.PostRepository, follows repository.FollowRepository, store media.Store) *GraphService {
	return &GraphService{db: db, rdb: rdb, users: users, posts: posts, follows: follows, media: store}
}

// FollowOrUnfollow toggles the follow edge from actor to target. Following a
// user you already follow unfollows them. Self-follows are allowed.
func (s *GraphService) FollowOrUnfollow(ctx context.Context, actorID, targetID uint) (GraphAction, error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return "", err
	}
	if _, err := s.users.GetByID(ctx, actorID); err != nil {
		return "", err
	}

	following, err := s.follows.IsFollowing(ctx, actorID, targetID)
	if err != nil {
		return "", err
	}

	var action GraphAction
	if following {
		if err := s.follows.Unfollow(ctx, actorID, targetID); err != nil {
			return "", err
		}
		action = ActionUnfollowed
	} else {
		if err := s.follows.Follow(ctx, actorID, targetID); err != nil {
			return "", err
		}
		action = ActionFollowed
	}

	observability.GraphToggles.WithLabelValues(string(action)).Inc()
	cache.Invalidate(ctx, s.rdb, cache.UserKey(actorID), cache.UserKey(targetID))
	return action, nil
}

// DeleteUserCascade removes a user and everything hanging off them: media
// assets for their posts and avatar, likes and comments on their posts, the
// posts themselves, their own likes and comments elsewhere, and every follow
// edge touching them in either direction. Media destroys are best-effort; all
// record deletions run in one transaction.
func (s *GraphService) DeleteUserCascade(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	imageIDs, err := s.posts.ImageIDsByAuthor(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range imageIDs {
		s.destroyMedia(ctx, id)
	}
	s.destroyMedia(ctx, user.AvatarID)

	authoredPosts := s.db.Model(&models.Post{}).Select("id").Where("author_id = ?", userID)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id IN (?)", authoredPosts).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id IN (?)", authoredPosts).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	observability.CascadeDeletions.WithLabelValues("user").Inc()
	cache.Invalidate(ctx, s.rdb, cache.UserKey(userID), cache.RecentPostsKey)
	return nil
}

// DeletePostCascade removes a post, its likes, its comments and its media
// asset. Only the author may delete unless bypassOwnership is set (admin
// path).
func (s *GraphService) DeletePostCascade(ctx context.Context, postID, actorID uint, bypassOwnership bool) error {
	post, err := s.posts.GetByID(ctx, postID, actorID)
	if err != nil {
		return err
	}
	if !bypassOwnership && post.AuthorID != actorID {
		return models.NewForbiddenError("You are not the owner of this post")
	}

	s.destroyMedia(ctx, post.ImageID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	observability.CascadeDeletions.WithLabelValues("post").Inc()
	cache.Invalidate(ctx, s.rdb, cache.PostKey(postID), cache.RecentPostsKey)
	return nil
}

// destroyMedia removes an asset without failing the surrounding cascade.
func (s *GraphService) destroyMedia(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.media.Destroy(ctx, publicID); err != nil {
		slog.WarnContext(ctx, "media destroy failed, continuing cascade",
			"public_id", publicID, "error", err)
	}
}
