// Package store 提供用户、refresh token 与消息的持久化，service 层只依赖这里的窄接口。
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nidhijagga/quicktalk-be/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// UserStore 即凭据存储，独占 User 记录并保证 email 唯一。
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
}

// TokenStore 独占 RefreshToken 记录。
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string, userID uint) (*models.RefreshToken, error)
	// DeleteRefreshToken 返回是否真的删除了一条记录。
	DeleteRefreshToken(ctx context.Context, token string) (bool, error)
	// RotateRefreshToken 在同一事务里删除旧 token 并写入新 token；
	// 旧 token 已不存在时返回 ErrNotFound 且不写入新 token。
	RotateRefreshToken(ctx context.Context, old string, userID uint, next *models.RefreshToken) error
	// DeleteExpiredRefreshTokens 删除 before 之前过期的记录，返回删除条数。
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *models.Message) error
	FindMessagesBetween(ctx context.Context, a, b uint) ([]models.Message, error)
}

// Store 是基于 gorm 的实现，同时满足三个接口。
type Store struct {
	db *gorm.DB
}

var (
	_ UserStore    = (*Store)(nil)
	_ TokenStore   = (*Store)(nil)
	_ MessageStore = (*Store)(nil)
)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
