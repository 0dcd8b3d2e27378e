package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nidhijagga/quicktalk-be/internal/models"
	"github.com/nidhijagga/quicktalk-be/internal/store"
)

// Presence 由实时层提供在线状态快照。
type Presence interface {
	IsOnline(userID string) bool
}

// UserService 提供个人资料与用户列表。
type UserService struct {
	users    store.UserStore
	presence Presence
}

func NewUserService(users store.UserStore, presence Presence) *UserService {
	return &UserService{users: users, presence: presence}
}

// UserDTO 是对外输出的用户数据，附带在线状态。
type UserDTO struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Online   bool   `json:"online"`
}

// Profile 返回当前用户资料。
func (s *UserService) Profile(ctx context.Context, userID uint) (*UserDTO, error) {
	u, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	dto := s.toDTO(*u)
	return &dto, nil
}

// List 返回全部用户。
func (s *UserService) List(ctx context.Context) ([]UserDTO, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, s.toDTO(u))
	}
	return out, nil
}

func (s *UserService) toDTO(u models.User) UserDTO {
	dto := UserDTO{ID: u.ID, Username: u.Username, Email: u.Email}
	if s.presence != nil {
		dto.Online = s.presence.IsOnline(strconv.FormatUint(uint64(u.ID), 10))
	}
	return dto
}
