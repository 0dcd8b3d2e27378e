package auth

import (
	"time"

	"github.com/nidhijagga/quicktalk-be/internal/config"
)

// TokenIssuer 持有 access/refresh 两套密钥与有效期。
type TokenIssuer struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func NewTokenIssuerFromConfig(cfg config.Config) *TokenIssuer {
	return NewTokenIssuer(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour,
	)
}

func (i *TokenIssuer) IssueAccess(userID uint) (string, error) {
	return SignToken(userID, i.accessSecret, i.accessTTL)
}

func (i *TokenIssuer) IssueRefresh(userID uint) (string, error) {
	return SignToken(userID, i.refreshSecret, i.refreshTTL)
}

func (i *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return ParseToken(token, i.accessSecret)
}

func (i *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return ParseToken(token, i.refreshSecret)
}

func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }
