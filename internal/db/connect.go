package db

import (
	"fmt"
	"net"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/zulandar/roadmap/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the named database. An empty database selects
// none, which is what CREATE DATABASE needs.
func DSN(user, password, host string, port int, database string) string {
	cfg := gomysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg.FormatDSN()
}

// PostgresDSN builds a key/value DSN for the postgres driver.
func PostgresDSN(user, password, host string, port int, database string) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable", host, port, user, database)
	if password != "" {
		dsn += " password=" + password
	}
	return dsn
}

// Dialector picks the gorm dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(DSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)), nil
	case "postgres":
		return postgres.Open(PostgresDSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}

// Connect opens a GORM connection using the database section of the config.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect %s %s: %w", cfg.Driver, describe(cfg), err)
	}
	return db, nil
}

// ConnectMemory opens a private in-memory sqlite database. The pool is
// pinned to one connection because every sqlite :memory: connection is a
// separate database.
func ConnectMemory() (*gorm.DB, error) {
	db, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: memory pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// CreateDatabase creates the configured MySQL database if it doesn't already
// exist. Other drivers are left alone: sqlite creates its file on open and
// postgres databases are provisioned out of band.
func CreateDatabase(cfg config.DatabaseConfig) error {
	if cfg.Driver != "mysql" {
		return nil
	}
	admin, err := gorm.Open(mysql.Open(DSN(cfg.User, cfg.Password, cfg.Host, cfg.Port, "")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("db: admin connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Name)
	if err := admin.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", cfg.Name, err)
	}
	return nil
}

func describe(cfg config.DatabaseConfig) string {
	if cfg.Driver == "sqlite" {
		return cfg.Path
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
}
