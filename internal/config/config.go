package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultAccessSecret  = "dev-access-secret-change-me"
	defaultRefreshSecret = "dev-refresh-secret-change-me"
)

type Config struct {
	Port                  string
	Env                   string
	DatabaseDriver        string
	DatabaseDSN           string
	AccessTokenSecret     string
	RefreshTokenSecret    string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	CORSOrigins           []string
	RefreshTokenCookie    bool
}

// Load 从环境变量（以及可选的 CONFIG_FILE 配置文件）读取配置。
func Load() Config {
	v := viper.New()
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=quicktalk port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("ACCESS_TOKEN_SECRET", defaultAccessSecret)
	v.SetDefault("REFRESH_TOKEN_SECRET", defaultRefreshSecret)
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 7)
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("REFRESH_TOKEN_COOKIE", true)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		// 配置文件缺失时继续使用环境变量与默认值。
		_ = v.ReadInConfig()
	}

	accessTTL := v.GetInt("ACCESS_TOKEN_TTL_MINUTES")
	if accessTTL <= 0 {
		accessTTL = 15
	}
	refreshTTL := v.GetInt("REFRESH_TOKEN_TTL_DAYS")
	if refreshTTL <= 0 {
		refreshTTL = 7
	}

	return Config{
		Port:                  v.GetString("APP_PORT"),
		Env:                   v.GetString("APP_ENV"),
		DatabaseDriver:        strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:           v.GetString("DATABASE_DSN"),
		AccessTokenSecret:     v.GetString("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret:    v.GetString("REFRESH_TOKEN_SECRET"),
		AccessTokenTTLMinutes: accessTTL,
		RefreshTokenTTLDays:   refreshTTL,
		CORSOrigins:           splitList(v.GetString("CORS_ORIGINS")),
		RefreshTokenCookie:    v.GetBool("REFRESH_TOKEN_COOKIE"),
	}
}

// Validate 在启动前检查配置，非 dev 环境禁止使用默认密钥。
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("APP_PORT must be set")
	}
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must be set")
	}
	switch cfg.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER: %q", cfg.DatabaseDriver)
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return errors.New("token secrets must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}
	if cfg.Env != "dev" {
		if cfg.AccessTokenSecret == defaultAccessSecret || cfg.RefreshTokenSecret == defaultRefreshSecret {
			return errors.New("default token secrets are only allowed in dev")
		}
	}
	return nil
}

// IsDev 报告是否运行在开发环境。
func (c Config) IsDev() bool { return c.Env == "dev" }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
