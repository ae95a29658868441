package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/merlinhq/avalon-server/config"
	dbmysql "github.com/merlinhq/avalon-server/db/mysql"
	dbsqlite "github.com/merlinhq/avalon-server/db/sqlite"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
