package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"socialhub/internal/config"
	"socialhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T, env string) *config.Config {
	t.Helper()
	return &config.Config{
		Env:          env,
		DBDriver:     "sqlite",
		DBSQLitePath: filepath.Join(t.TempDir(), "runtime.db"),
		RedisURL:     "127.0.0.1:1",
	}
}

func TestInitRuntime_SeedsDemoData(t *testing.T) {
	db, rdb, err := InitRuntime(context.Background(), sqliteConfig(t, "development"), Options{SeedDemo: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	assert.Nil(t, rdb, "unreachable redis leaves the client nil")

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(3), users)
}

func TestInitRuntime_NeverSeedsProduction(t *testing.T) {
	cfg := sqliteConfig(t, "production")
	db, _, err := InitRuntime(context.Background(), cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
