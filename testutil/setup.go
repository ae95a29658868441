package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/cache"
	"github.com/merlinhq/avalon-server/config"
	dbadapter "github.com/merlinhq/avalon-server/db"
	"github.com/merlinhq/avalon-server/model"
)

// SetupTestDB creates an in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates a LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}
