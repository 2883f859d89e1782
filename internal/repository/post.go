package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mingle/internal/database"
	"mingle/internal/models"
)

// PostRepository defines persistence operations for posts and likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, search string, limit, offset int, currentUserID uint) ([]*models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, search string, limit, offset int, currentUserID uint) ([]*models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, search string, limit, offset int, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	ImageIDsByAuthor(ctx context.Context, authorID uint) ([]string, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
}

type postRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewPostRepository returns a PostRepository implementation.
func NewPostRepository(db *gorm.DB, rdb *redis.Client) PostRepository {
	return &postRepository{db: db, rdb: rdb}
}

// postColumns computes like/comment counts and whether the current user liked
// the post, in one query.
const postColumns = `posts.*,
	(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count,
	(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count,
	EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked`

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := database.GetReadDB(r.db).WithContext(ctx).
		Select(postColumns, currentUserID).
		Preload("Author").
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, search string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return r.list(ctx, nil, search, limit, offset, currentUserID)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, search string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return r.list(ctx, []uint{authorID}, search, limit, offset, currentUserID)
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, search string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return []*models.Post{}, nil
	}
	return r.list(ctx, authorIDs, search, limit, offset, currentUserID)
}

func (r *postRepository) list(ctx context.Context, authorIDs []uint, search string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	q := database.GetReadDB(r.db).WithContext(ctx).
		Model(&models.Post{}).
		Select(postColumns, currentUserID).
		Preload("Author")

	if len(authorIDs) > 0 {
		q = q.Where("posts.author_id IN ?", authorIDs)
	}
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.description) LIKE ?", pattern, pattern)
	}

	var posts []*models.Post
	if err := q.Order("posts.created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ImageIDsByAuthor(ctx context.Context, authorID uint) ([]string, error) {
	var ids []string
	err := database.GetReadDB(r.db).WithContext(ctx).
		Model(&models.Post{}).
		Where("author_id = ? AND image_id <> ''", authorID).
		Pluck("image_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := database.GetReadDB(r.db).WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID}
	// A concurrent duplicate hits the unique pair index and is ignored.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
