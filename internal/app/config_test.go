package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "https://events.example.com", cfg.Server.BaseURL)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.True(t, cfg.Auth.OIDC.Enabled)
	require.Equal(t, "https://id.example.com", cfg.Auth.OIDC.Issuer)
	require.Equal(t, "Owner@Example.com", cfg.Auth.SuperAdminEmail)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
	require.True(t, cfg.Maintenance.AutoClose.Enabled)
	require.Equal(t, "@daily", cfg.Maintenance.AutoClose.Schedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)
	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "@hourly", cfg.Maintenance.AutoClose.Schedule)
	require.Equal(t, []string{"openid", "profile", "email"}, cfg.Auth.OIDC.Scopes)
}

func TestConfigAdapters(t *testing.T) {
	cfg := Config{}
	cfg.Auth.JWT = JWTSettings{Secret: "s", Issuer: "i", TTL: time.Hour}
	cfg.Auth.OIDC = OIDCSettings{Issuer: "https://id.example.com", ClientID: "c", Scopes: []string{"openid"}}
	cfg.Email.SMTP = SMTPConfig{Enabled: true, Host: "h", Port: 25, From: "f@example.com"}
	cfg.Database = DatabaseConfig{Driver: "mysql", MySQL: DBAuthConfig{Host: "m", Port: 3306, Database: "d", Username: "u", Password: "p"}}

	jwtCfg := cfg.Auth.JWTServiceConfig()
	require.Equal(t, "s", jwtCfg.Secret)
	require.Equal(t, time.Hour, jwtCfg.AccessTokenTTL)

	oidcCfg := cfg.Auth.OIDCVerifierSettings()
	require.Equal(t, "https://id.example.com", oidcCfg.Issuer)
	require.Equal(t, []string{"openid"}, oidcCfg.Scopes)

	smtpCfg := cfg.Email.SMTPSettings()
	require.True(t, smtpCfg.Enabled)
	require.Equal(t, 25, smtpCfg.Port)

	dbCfg := cfg.Database.DatabaseSettings()
	require.Equal(t, "mysql", dbCfg.Driver)
	require.Equal(t, "m", dbCfg.Host)
	require.Equal(t, "d", dbCfg.Name)
}
