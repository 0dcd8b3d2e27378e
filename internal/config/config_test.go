package config

import (
	"os"
	"testing"
)

var envKeys = []string{
	"APP_PORT",
	"APP_ENV",
	"DATABASE_DRIVER",
	"DATABASE_DSN",
	"ACCESS_TOKEN_SECRET",
	"REFRESH_TOKEN_SECRET",
	"ACCESS_TOKEN_TTL_MINUTES",
	"REFRESH_TOKEN_TTL_DAYS",
	"CORS_ORIGINS",
	"REFRESH_TOKEN_COOKIE",
	"CONFIG_FILE",
}

func clearEnv() {
	for _, k := range envKeys {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Load() Port = %v, want 8080", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Errorf("Load() Env = %v, want dev", cfg.Env)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Errorf("Load() DatabaseDriver = %v, want postgres", cfg.DatabaseDriver)
	}
	if cfg.AccessTokenTTLMinutes != 15 {
		t.Errorf("Load() AccessTokenTTLMinutes = %v, want 15", cfg.AccessTokenTTLMinutes)
	}
	if cfg.RefreshTokenTTLDays != 7 {
		t.Errorf("Load() RefreshTokenTTLDays = %v, want 7", cfg.RefreshTokenTTLDays)
	}
	if !cfg.RefreshTokenCookie {
		t.Error("Load() RefreshTokenCookie = false, want true")
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Errorf("Load() CORSOrigins = %v, want empty", cfg.CORSOrigins)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv()
	os.Setenv("APP_PORT", "9090")
	os.Setenv("DATABASE_DRIVER", "SQLite")
	os.Setenv("DATABASE_DSN", "file:test.db")
	os.Setenv("ACCESS_TOKEN_SECRET", "access")
	os.Setenv("REFRESH_TOKEN_SECRET", "refresh")
	os.Setenv("APP_ENV", "prod")
	os.Setenv("ACCESS_TOKEN_TTL_MINUTES", "30")
	os.Setenv("REFRESH_TOKEN_TTL_DAYS", "14")
	os.Setenv("CORS_ORIGINS", "http://a.example, http://b.example ,")
	os.Setenv("REFRESH_TOKEN_COOKIE", "false")
	defer clearEnv()

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Load() Port = %v, want 9090", cfg.Port)
	}
	if cfg.DatabaseDriver != "sqlite" {
		t.Errorf("Load() DatabaseDriver = %v, want sqlite", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN != "file:test.db" {
		t.Errorf("Load() DatabaseDSN = %v, want file:test.db", cfg.DatabaseDSN)
	}
	if cfg.AccessTokenSecret != "access" || cfg.RefreshTokenSecret != "refresh" {
		t.Errorf("Load() secrets = %q/%q", cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	}
	if cfg.Env != "prod" {
		t.Errorf("Load() Env = %v, want prod", cfg.Env)
	}
	if cfg.AccessTokenTTLMinutes != 30 {
		t.Errorf("Load() AccessTokenTTLMinutes = %v, want 30", cfg.AccessTokenTTLMinutes)
	}
	if cfg.RefreshTokenTTLDays != 14 {
		t.Errorf("Load() RefreshTokenTTLDays = %v, want 14", cfg.RefreshTokenTTLDays)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.example" || cfg.CORSOrigins[1] != "http://b.example" {
		t.Errorf("Load() CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.RefreshTokenCookie {
		t.Error("Load() RefreshTokenCookie = true, want false")
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	clearEnv()
	os.Setenv("ACCESS_TOKEN_TTL_MINUTES", "invalid")
	os.Setenv("REFRESH_TOKEN_TTL_DAYS", "-5")
	defer clearEnv()

	cfg := Load()

	// Should fall back to defaults
	if cfg.AccessTokenTTLMinutes != 15 {
		t.Errorf("Load() AccessTokenTTLMinutes = %v, want 15 (default)", cfg.AccessTokenTTLMinutes)
	}
	if cfg.RefreshTokenTTLDays != 7 {
		t.Errorf("Load() RefreshTokenTTLDays = %v, want 7 (default)", cfg.RefreshTokenTTLDays)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:               "8080",
			Env:                "dev",
			DatabaseDriver:     "postgres",
			DatabaseDSN:        "postgres://localhost/test",
			AccessTokenSecret:  defaultAccessSecret,
			RefreshTokenSecret: defaultRefreshSecret,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid dev config", func(*Config) {}, false},
		{"valid prod config", func(c *Config) {
			c.Env = "prod"
			c.AccessTokenSecret = "prod-access"
			c.RefreshTokenSecret = "prod-refresh"
		}, false},
		{"sqlite driver", func(c *Config) { c.DatabaseDriver = "sqlite" }, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }, true},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "oracle" }, true},
		{"empty secret", func(c *Config) { c.RefreshTokenSecret = "" }, true},
		{"shared secret", func(c *Config) { c.RefreshTokenSecret = c.AccessTokenSecret }, true},
		{"default secret in prod", func(c *Config) { c.Env = "prod" }, true},
		{"default refresh secret in test env", func(c *Config) {
			c.Env = "test"
			c.AccessTokenSecret = "custom"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
