package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/auth"
	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/mail"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "json", cfg.Server.LogFormat)
	require.Equal(t, []string{"https://teams.example.edu"}, cfg.Server.AllowedOrigins)
	require.Equal(t, 10, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])

	require.Equal(t, "database", cfg.Cache.Backend)
	require.Equal(t, "@hourly", cfg.Cache.PurgeSchedule)
	require.Equal(t, "00112233445566778899aabbccddeeff", cfg.Vault.EncryptionKey)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "gitteams", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.Equal(t, "https://github.example.com/api/v3", cfg.GitHub.APIURL)
	require.Equal(t, 5*time.Second, cfg.GitHub.Timeout)
	require.False(t, cfg.GitHub.PrivateRepos)
	require.Equal(t, 10*time.Minute, cfg.GitHub.OrgCacheTTL)
	require.True(t, cfg.GitHub.HTTPCache)
	require.Equal(t, 2, cfg.GitHub.Concurrency)

	require.True(t, cfg.Mail.Enabled)
	require.Equal(t, "smtp.example.edu", cfg.Mail.Host)
	require.Equal(t, 465, cfg.Mail.Port)
	require.True(t, cfg.Mail.ImplicitTLS)
	require.Equal(t, 10*time.Second, cfg.Mail.Timeout)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/gitteams.sqlite", cfg.Database.Path)
	require.Equal(t, "memory", cfg.Cache.Backend)
	require.Empty(t, cfg.Vault.EncryptionKey)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, "https://api.github.com", cfg.GitHub.APIURL)
	require.Equal(t, "gitteams", cfg.GitHub.UserAgent)
	require.Equal(t, 15*time.Second, cfg.GitHub.Timeout)
	require.True(t, cfg.GitHub.PrivateRepos)
	require.Equal(t, 5*time.Minute, cfg.GitHub.OrgCacheTTL)
	require.Equal(t, 4, cfg.GitHub.Concurrency)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.False(t, cfg.Mail.Enabled)
	require.Equal(t, 587, cfg.Mail.Port)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("GITTEAMS_SERVER_PORT", "7000")
	t.Setenv("GITTEAMS_GITHUB_PRIVATE_REPOS", "false")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Server.Port)
	require.False(t, cfg.GitHub.PrivateRepos)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "GITTEAMS_GITHUB_USER_AGENT=from-dotenv\nGITTEAMS_SERVER_LOG_LEVEL=warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	t.Setenv("GITTEAMS_SERVER_LOG_LEVEL", "error")
	t.Cleanup(func() { _ = os.Unsetenv("GITTEAMS_GITHUB_USER_AGENT") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.GitHub.UserAgent)
	require.Equal(t, "error", cfg.Server.LogLevel)
}

func TestConfigAdapters(t *testing.T) {
	cfg := Config{
		Auth: AuthConfig{JWT: JWTSettings{Secret: "secret", Issuer: "issuer"}},
		GitHub: GitHubConfig{
			APIURL:       "http://127.0.0.1:9999",
			UserAgent:    "agent",
			PrivateRepos: true,
		},
	}

	jwtCfg := cfg.Auth.JWTServiceConfig()
	require.Equal(t, auth.JWTConfig{Secret: "secret", Issuer: "issuer", AccessTokenTTL: auth.DefaultAccessTokenTTL}, jwtCfg)

	clientCfg := cfg.GitHub.ClientConfig()
	require.Equal(t, "http://127.0.0.1:9999", clientCfg.BaseURL)
	require.Equal(t, github.DefaultTimeout, clientCfg.Timeout)

	formation := cfg.GitHub.FormationConfig()
	require.Equal(t, services.GroupFormationConfig{PrivateRepos: true, LookupConcurrency: services.DefaultLookupConcurrency}, formation)

	cfg.Mail = MailConfig{Host: "smtp.example.edu", Port: 25, From: "noreply@example.edu", Timeout: time.Second}
	require.Equal(t, mail.Config{Host: "smtp.example.edu", Port: 25, From: "noreply@example.edu", Timeout: time.Second}, cfg.Mail.SenderConfig())
}
