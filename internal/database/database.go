package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jobportal/internal/config"
	"jobportal/internal/errcode"
)

// Options 返回各环境共用的 GORM 配置。
// 关闭外键约束：删除职位不级联删除申请，申请允许指向已删除的职位。
func Options(logLevel logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// InitDatabase 使用配置初始化 PostgreSQL 连接，并返回 GORM 数据库实例。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), Options(logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate 创建或更新全部表结构与索引。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Company{}, &Job{}, &Application{})
}

// Classify 将 GORM 错误映射为 errcode；已是 *errcode.Error 的错误原样返回。
func Classify(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *errcode.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errcode.New(errcode.NotFound, notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errcode.Wrap(errcode.Conflict, "duplicate record", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errcode.Wrap(errcode.Unavailable, "request cancelled", err)
	default:
		return errcode.Wrap(errcode.Unavailable, "store unavailable", err)
	}
}
