// Package db opens and migrates the conversation log database.
package db

import (
	"fmt"

	"github.com/zulandar/marquee/internal/config"
	"github.com/zulandar/marquee/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLDSN builds a DSN for connecting to a MySQL conversation log.
func MySQLDSN(user, host string, port int, database string) string {
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", user, host, port, database)
}

// Connect opens a GORM connection per the conversation log config and runs
// migrations.
func Connect(cfg config.ConvLogConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "mysql":
		dialector = mysql.Open(MySQLDSN(cfg.User, cfg.Host, cfg.Port, cfg.Database))
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect (%s): %w", cfg.Driver, err)
	}
	if err := Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

// Migrate creates or updates the conversation log schema.
func Migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(&models.ConversationTurn{}); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
