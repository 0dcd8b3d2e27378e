package store

import (
	"context"
	"time"

	"github.com/nidhijagga/quicktalk-be/internal/models"

	"gorm.io/gorm"
)

func (s *Store) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return translate(s.db.WithContext(ctx).Create(t).Error)
}

func (s *Store) FindRefreshToken(ctx context.Context, token string, userID uint) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ? AND user_id = ?", token, userID).First(&rt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rt, nil
}

func (s *Store) DeleteRefreshToken(ctx context.Context, token string) (bool, error) {
	res := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) RotateRefreshToken(ctx context.Context, old string, userID uint, next *models.RefreshToken) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 条件删除是单次使用的闸门：并发刷新时只有一个请求能删到这一行。
		res := tx.Where("token = ? AND user_id = ?", old, userID).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := translate(tx.Create(next).Error); err != nil {
			return err
		}
		// 顺带清理该用户已过期但从未轮换或注销的 token。
		return tx.Where("user_id = ? AND expires_at < ?", userID, time.Now()).Delete(&models.RefreshToken{}).Error
	})
}

func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
