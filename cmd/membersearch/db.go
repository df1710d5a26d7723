package main

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	driverSQLite   = "sqlite"
	driverMySQL    = "mysql"
	driverPostgres = "postgres"
)

func openDB(cfg databaseConfig, gormLogger logger.Interface) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case driverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case driverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case driverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	return db, nil
}
