package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"duo-journal-backend/internal/timeline"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
jwt:
  secret: s3cret
journal:
  entry_policy: multi
  password_reset_ttl: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 30*time.Minute, cfg.Journal.PasswordResetTTL)
	require.Equal(t, timeline.DefaultDateLayout, cfg.Journal.DateLayout)

	policy, err := cfg.Journal.Policy()
	require.NoError(t, err)
	require.Equal(t, timeline.PolicyMulti, policy)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/duo")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.JWT.Secret)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "postgresql://u:p@db:5432/duo", cfg.Database.DSN())
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: x\njournal:\n  entry_policy: sometimes\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := writeConfig(t, "server:\n  port: 1\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestDSNFromFields(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	require.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", db.DSN())
}
