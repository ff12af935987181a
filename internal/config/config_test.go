package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/khata-test.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("ANALYTICS_CACHE_TTL", "2m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/khata-test.db", cfg.DSN())
	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.Equal(t, 2*time.Minute, cfg.AnalyticsCacheTTL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.RateLimitWriteMax)
	assert.Zero(t, cfg.ReconcileInterval)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_driver: sqlite\nsqlite_path: file.db\njwt_secret: from-file\nport: \"9000\"\n"), 0o600))

	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file.db", cfg.SQLitePath)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "9100", cfg.Port)
}

func TestLoadRejectsMissingSecrets(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load("")
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "a.db")
	t.Setenv("JWT_SECRET", "")
	_, err = Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("DB_DRIVER", "mongo")
	t.Setenv("JWT_SECRET", "x")
	_, err = Load("")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestLoadToleratesMissingFileButNotBrokenOne(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "a.db")
	t.Setenv("JWT_SECRET", "x")
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "a.db", cfg.SQLitePath)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("port: [9000\n"), 0o600))
	_, err = Load(broken)
	assert.ErrorContains(t, err, "read config")
}
