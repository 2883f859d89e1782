// Package database opens the gorm connections and owns schema migration.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"mingle/internal/config"
	"mingle/internal/models"
	"mingle/internal/observability"
)

var readDB *gorm.DB

// Connect opens the primary database, configures the pool and, outside
// production, runs AutoMigrate. When a read replica host is configured it is
// opened as well and served by GetReadDB.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := open(cfg.DSN(), cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if !cfg.IsProduction() {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("migrating schema: %w", err)
		}
	}

	if dsn := cfg.ReadDSN(); dsn != "" {
		replica, err := open(dsn, cfg)
		if err != nil {
			slog.Warn("read replica unavailable, reads use the primary", "error", err)
		} else {
			readDB = replica
		}
	}

	return db, nil
}

// GetReadDB returns the read replica when configured, the primary otherwise.
func GetReadDB(primary *gorm.DB) *gorm.DB {
	if readDB != nil {
		return readDB
	}
	return primary
}

// Migrate creates or updates the schema for all entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Image{},
	)
}

func open(dsn string, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newSlogGormLogger(cfg.IsProduction()),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// slogGormLogger routes gorm's logging through slog and feeds query latency
// into prometheus.
type slogGormLogger struct {
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newSlogGormLogger(production bool) gormlogger.Interface {
	level := gormlogger.Info
	if production {
		level = gormlogger.Warn
	}
	return &slogGormLogger{level: level, slowThreshold: 200 * time.Millisecond}
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	out := *l
	out.level = level
	return &out
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		slog.InfoContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		slog.WarnContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		slog.ErrorContext(ctx, fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	observability.DBQueryDuration.WithLabelValues("query").Observe(elapsed.Seconds())

	sql, rows := fc()
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		slog.ErrorContext(ctx, "query failed", "error", err, "sql", sql, "rows", rows, "duration", elapsed)
	case elapsed > l.slowThreshold:
		slog.WarnContext(ctx, "slow query", "sql", sql, "rows", rows, "duration", elapsed)
	case l.level >= gormlogger.Info:
		slog.DebugContext(ctx, "query", "sql", sql, "rows", rows, "duration", elapsed)
	}
}
