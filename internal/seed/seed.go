// Package seed fills a development database with fake users, posts, follows,
// likes and comments.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mingle/internal/models"
)

// Options controls how much data Run generates.
type Options struct {
	Users        int
	PostsPerUser int
	FollowsEach  int
}

// DefaultOptions is a small but connected graph.
func DefaultOptions() Options {
	return Options{Users: 20, PostsPerUser: 3, FollowsEach: 4}
}

// Run populates the database. Safe to call repeatedly; duplicate follows and
// likes fall into their unique indexes and are ignored.
func Run(ctx context.Context, db *gorm.DB, opts Options) error {
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user := NewUser()
		if err := db.WithContext(ctx).Create(user).Error; err != nil {
			return fmt.Errorf("seeding user: %w", err)
		}
		users = append(users, user)
	}

	var posts []*models.Post
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post := NewPost(user.ID)
			if err := db.WithContext(ctx).Create(post).Error; err != nil {
				return fmt.Errorf("seeding post: %w", err)
			}
			posts = append(posts, post)
		}
	}

	for _, user := range users {
		for i := 0; i < opts.FollowsEach; i++ {
			target := users[rand.Intn(len(users))]
			edge := models.Follow{FollowerID: user.ID, FolloweeID: target.ID}
			if err := db.WithContext(ctx).
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&edge).Error; err != nil {
				return fmt.Errorf("seeding follow: %w", err)
			}
		}
	}

	for _, post := range posts {
		for _, user := range users {
			if rand.Float64() < 0.3 {
				like := models.Like{UserID: user.ID, PostID: post.ID}
				if err := db.WithContext(ctx).
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(&like).Error; err != nil {
					return fmt.Errorf("seeding like: %w", err)
				}
			}
			if rand.Float64() < 0.15 {
				comment := NewComment(post.ID, user.ID)
				if err := db.WithContext(ctx).
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(comment).Error; err != nil {
					return fmt.Errorf("seeding comment: %w", err)
				}
			}
		}
	}

	slog.Info("seed complete", "users", len(users), "posts", len(posts))
	return nil
}
