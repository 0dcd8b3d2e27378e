package db

import (
	"fmt"
	"time"

	"github.com/nidhijagga/quicktalk-be/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect 按驱动建立数据库连接。Postgres/MySQL 带有简单的重试来等待容器就绪。
func Connect(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return connectWithRetry(driver, postgres.Open(dsn))
	case "mysql":
		return connectWithRetry(driver, mysql.Open(dsn))
	case "sqlite":
		return connectSQLite(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func gormConfig() *gorm.Config {
	// TranslateError 让唯一约束冲突统一成 gorm.ErrDuplicatedKey。
	return &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}
}

func connectWithRetry(driver string, dialector gorm.Dialector) (*gorm.DB, error) {
	var gdb *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(dialector, gormConfig())
		if err == nil {
			sqlDB, err2 := gdb.DB()
			if err2 == nil {
				sqlDB.SetMaxIdleConns(5)
				sqlDB.SetMaxOpenConns(20)
				sqlDB.SetConnMaxLifetime(time.Hour)
				return gdb, nil
			}
			err = err2
		}
		log.Warn().Err(err).Str("driver", driver).Int("attempt", i+1).Msg("db connect retry")
		time.Sleep(time.Duration(500+i*200) * time.Millisecond)
	}
	return nil, err
}

func connectSQLite(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// SQLite 只允许单写者，单连接可避免 database is locked。
	sqlDB.SetMaxOpenConns(1)
	_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")
	return gdb, nil
}

// Migrate 自动迁移用户、refresh token 与消息表。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Message{})
}
