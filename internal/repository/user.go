// Package repository implements the data access layer.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mingle/internal/cache"
	"mingle/internal/database"
	"mingle/internal/models"
)

// UserRepository defines persistence operations for users. Lookup methods
// that feed toggles and uniqueness probes (email, username, tokens) return
// (nil, nil) when no row matches; GetByID returns a NotFound error.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByIDWithPosts(ctx context.Context, id uint, limit int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, search string, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserRepository returns a UserRepository backed by gorm with cache-aside
// reads for the hot GetByID path.
func NewUserRepository(db *gorm.DB, rdb *redis.Client) UserRepository {
	return &userRepository{db: db, rdb: rdb}
}

// cachedUser is the cache serialization of a User. The API model hides the
// password and token fields from JSON, so caching the model directly would
// strip them on a hit and a later Save would persist the loss. The wrapper
// carries them under explicit keys and folds them back in on read.
type cachedUser struct {
	models.User
	Password               string     `json:"password"`
	VerificationToken      string     `json:"verification_token"`
	ResetPasswordToken     string     `json:"reset_password_token"`
	ResetPasswordExpiresAt *time.Time `json:"reset_password_expires_at"`
}

func newCachedUser(u *models.User) cachedUser {
	return cachedUser{
		User:                   *u,
		Password:               u.Password,
		VerificationToken:      u.VerificationToken,
		ResetPasswordToken:     u.ResetPasswordToken,
		ResetPasswordExpiresAt: u.ResetPasswordExpiresAt,
	}
}

func (c cachedUser) user() *models.User {
	u := c.User
	u.Password = c.Password
	u.VerificationToken = c.VerificationToken
	u.ResetPasswordToken = c.ResetPasswordToken
	u.ResetPasswordExpiresAt = c.ResetPasswordExpiresAt
	return &u
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	entry, err := cache.Aside(ctx, r.rdb, cache.UserKey(id), cache.UserTTL, func() (cachedUser, error) {
		var u models.User
		if err := database.GetReadDB(r.db).WithContext(ctx).First(&u, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cachedUser{}, models.NewNotFoundError("User", id)
			}
			return cachedUser{}, models.NewInternalError(err)
		}
		return newCachedUser(&u), nil
	})
	if err != nil {
		return nil, err
	}
	return entry.user(), nil
}

func (r *userRepository) GetByIDWithPosts(ctx context.Context, id uint, limit int) (*models.User, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	var user models.User
	if err := database.GetReadDB(r.db).WithContext(ctx).
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(limit)
		}).
		First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.findOne(ctx, "verification_token = ? AND email_verified = ?", token, false)
}

func (r *userRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, "reset_password_token = ? AND reset_password_expires_at > ?", tokenHash, now)
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := database.GetReadDB(r.db).WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Invalidate(ctx, r.rdb, cache.UserKey(user.ID))
	return nil
}

func (r *userRepository) List(ctx context.Context, search string, limit, offset int) ([]models.User, error) {
	q := database.GetReadDB(r.db).WithContext(ctx).Model(&models.User{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(username) LIKE ?", pattern, pattern)
	}

	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
