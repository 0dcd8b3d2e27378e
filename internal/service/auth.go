package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nidhijagga/quicktalk-be/internal/auth"
	"github.com/nidhijagga/quicktalk-be/internal/models"
	"github.com/nidhijagga/quicktalk-be/internal/store"

	"github.com/rs/zerolog/log"
)

// AuthService 负责注册、登录、refresh token 轮换与注销。
type AuthService struct {
	users  store.UserStore
	tokens store.TokenStore
	issuer *auth.TokenIssuer
}

func NewAuthService(users store.UserStore, tokens store.TokenStore, issuer *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens, issuer: issuer}
}

// TokenPair 是一次签发的 access/refresh token。
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult 登录成功后返回的数据。
type LoginResult struct {
	TokenPair
	User models.User `json:"user"`
}

// Signup 创建新用户；email 已存在时返回 ErrDuplicateUser。
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	_, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateUser
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		// 并发注册时由唯一索引兜底。
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Login 校验 email/密码并签发 token 对，refresh token 持久化后才返回。
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredential
	}
	pair, refresh, err := s.issue(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &LoginResult{TokenPair: *pair, User: *user}, nil
}

// Refresh 校验旧 refresh token 并轮换为新的 token 对。旧 token 只能使用一次。
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*TokenPair, error) {
	if oldToken == "" {
		return nil, ErrMissingToken
	}
	claims, err := s.issuer.ParseRefresh(oldToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if _, err := s.tokens.FindRefreshToken(ctx, oldToken, claims.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnrecognizedToken
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	pair, refresh, err := s.issue(claims.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.RotateRefreshToken(ctx, oldToken, claims.UserID, refresh); err != nil {
		// 并发刷新中落败的一方。
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnrecognizedToken
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

// Logout 删除 refresh token。幂等，且始终成功，避免泄露 token 是否存在。
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.tokens.DeleteRefreshToken(ctx, token); err != nil {
		log.Error().Err(err).Msg("logout delete refresh token")
	}
	return nil
}

func (s *AuthService) issue(userID uint) (*TokenPair, *models.RefreshToken, error) {
	access, err := s.issuer.IssueAccess(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh},
		&models.RefreshToken{Token: refresh, UserID: userID, ExpiresAt: time.Now().Add(s.issuer.RefreshTTL())},
		nil
}

// SweepExpiredTokens 定期删除已过期的 refresh token，ctx 取消后返回。
func (s *AuthService) SweepExpiredTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.tokens.DeleteExpiredRefreshTokens(ctx, now)
			if err != nil {
				log.Error().Err(err).Msg("sweep expired refresh tokens")
				continue
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("swept expired refresh tokens")
			}
		}
	}
}
