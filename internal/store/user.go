package store

import (
	"context"

	"github.com/nidhijagga/quicktalk-be/internal/models"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// ListUsers 按 id 升序返回全部用户。
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
