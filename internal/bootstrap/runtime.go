// Package bootstrap assembles the process runtime: config, logging, tracing,
// database and redis.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mingle/internal/cache"
	"mingle/internal/config"
	"mingle/internal/database"
	"mingle/internal/middleware"
	"mingle/internal/models"
	"mingle/internal/observability"
)

// Runtime holds everything a command needs to run the application.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client

	shutdownTracing func(context.Context) error
}

// Init loads config and brings up logging, tracing, the database and redis.
func Init(ctx context.Context) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	middleware.InitLogger(cfg.AppEnv)
	middleware.InitMiddleware(cfg)

	shutdownTracing, err := observability.InitTracing(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	rdb := cache.InitRedis(cfg.RedisURL)
	if rdb == nil {
		slog.Info("running without redis cache")
	}

	if !cfg.IsProduction() {
		if err := ensureDevAdmin(ctx, db); err != nil {
			slog.Warn("could not ensure dev admin account", "error", err)
		}
	}

	return &Runtime{
		Config:          cfg,
		DB:              db,
		Redis:           rdb,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Shutdown flushes tracing and closes the storage clients.
func (r *Runtime) Shutdown(ctx context.Context) {
	if r.shutdownTracing != nil {
		if err := r.shutdownTracing(ctx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			slog.Warn("redis close failed", "error", err)
		}
	}
	if sqlDB, err := r.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Warn("database close failed", "error", err)
		}
	}
}

// ensureDevAdmin creates a verified admin account for local development when
// none exists.
func ensureDevAdmin(ctx context.Context, db *gorm.DB) error {
	var admin models.User
	err := db.WithContext(ctx).Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("AdminDev123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin = models.User{
		Name:          "Dev Admin",
		Username:      "dev-admin",
		Email:         "admin@mingle.local",
		EmailVerified: true,
		Password:      string(hash),
		MobileNumber:  "+10000000000",
		Role:          models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}
	slog.Info("created dev admin account", "email", admin.Email)
	return nil
}
