package store

import (
	"context"

	"github.com/nidhijagga/quicktalk-be/internal/models"
)

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.db.WithContext(ctx).Create(m).Error
}

// FindMessagesBetween 返回 a、b 双向的全部消息，按创建时间升序，id 兜底排序。
func (s *Store) FindMessagesBetween(ctx context.Context, a, b uint) ([]models.Message, error) {
	msgs := make([]models.Message, 0)
	err := s.db.WithContext(ctx).
		Where("(sender = ? AND recipient = ?) OR (sender = ? AND recipient = ?)", a, b, b, a).
		Order("created_at asc").
		Order("id asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
