package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mingle/internal/database"
	"mingle/internal/models"
)

// FollowRepository defines persistence operations for the follow graph. One
// row per edge; both directions of the relation are reads over the same row,
// so they cannot drift apart.
type FollowRepository interface {
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	Follow(ctx context.Context, followerID, followeeID uint) error
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	CountFollowers(ctx context.Context, userID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := database.GetReadDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) error {
	edge := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	// A concurrent duplicate hits the unique pair index and is ignored.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.pluck(ctx, "follower_id", "followee_id = ?", userID)
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.pluck(ctx, "followee_id", "follower_id = ?", userID)
}

func (r *followRepository) pluck(ctx context.Context, column, where string, userID uint) ([]uint, error) {
	var ids []uint
	err := database.GetReadDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where(where, userID).
		Order(column + " ASC").
		Pluck(column, &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "followee_id = ?", userID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "follower_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, where string, userID uint) (int64, error) {
	var count int64
	err := database.GetReadDB(r.db).WithContext(ctx).
		Model(&models.Follow{}).
		Where(where, userID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *followRepository) DeleteAllForUser(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? OR followee_id = ?", userID, userID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
