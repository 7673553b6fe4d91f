package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_KEY", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "bor")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "convo")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("MESSAGE_CACHE_TTL", "5m")

	cfg, err := load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 5*time.Minute, cfg.MessageCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTokenTTL)
	assert.Equal(t, "host=db user=bor password=pw dbname=convo port=5432 sslmode=disable", cfg.DSN())
	assert.False(t, cfg.AttachmentsEnabled())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "STORAGE_DRIVER=mysql\nJWT_KEY=k\nDB_HOST=h\nDB_USER=u\nDB_PASSWORD=p\nDB_NAME=n\nDB_PORT=3306\nS3_BUCKET_NAME=files\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	cfg, err := load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.StorageDriver)
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4", cfg.DSN())
	assert.True(t, cfg.AttachmentsEnabled())
}

func TestLoadRequiresJWTKey(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_KEY", "")

	_, err := load("")
	assert.EqualError(t, err, "JWT_KEY is required")
}

func TestMemoryDriverSkipsDatabaseSettings(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_KEY", "k")

	cfg, err := load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StorageDriver)
}

func TestValidateDatabaseSettings(t *testing.T) {
	cfg := Config{StorageDriver: "postgres", JWTKey: "k", ServerPort: "8080", User: "u", Password: "p", Name: "n", DBPort: "5432"}
	assert.EqualError(t, cfg.Validate(), "DB_HOST is required")

	cfg.StorageDriver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestOrigins(t *testing.T) {
	cfg := Config{AllowedOrigins: "http://a.test, http://b.test,,"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Origins())
}
