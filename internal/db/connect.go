// Package db opens and migrates the Launchpad relational store.
package db

import (
	"fmt"
	"net"
	"strconv"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/zulandar/launchpad/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the configured database. An empty database
// name addresses the server only, for CREATE DATABASE operations.
func DSN(cfg config.DatabaseConfig, password, database string) string {
	c := mysqldrv.NewConfig()
	c.User = cfg.User
	c.Passwd = password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = database
	c.ParseTime = true
	return c.FormatDSN()
}

// Connect opens a GORM connection using the configured driver. For MySQL an
// explicit LAUNCHPAD_DATABASE_DSN takes precedence over the host settings.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return ConnectSQLite(cfg.Database.Path)
	case "mysql":
		dsn := cfg.Secrets.DatabaseDSN
		if dsn == "" {
			dsn = DSN(cfg.Database, cfg.Secrets.DatabasePass, cfg.Database.Name)
		}
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name, err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("db: unsupported driver %q", cfg.Database.Driver)
}

// ConnectSQLite opens a SQLite database file. ":memory:" gives a private
// in-memory database.
func ConnectSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db: sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// ConnectAdmin opens a GORM connection to the MySQL server without selecting
// a specific database.
func ConnectAdmin(cfg *config.Config) (*gorm.DB, error) {
	dsn := DSN(cfg.Database, cfg.Secrets.DatabasePass, "")
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	return db, nil
}

// DropDatabase drops the named database if it exists.
func DropDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", name, err)
	}
	return nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", name, err)
	}
	return nil
}
