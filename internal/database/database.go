// Package database opens the relational store behind the clinic directory.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnsupportedDriver indicates the database URL scheme is not sqlite or postgres.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

const (
	sqlitePrefix = "sqlite:///"
	memoryPath   = ":memory:"
)

// Database wraps a GORM connection.
type Database struct {
	db     *gorm.DB
	driver string
}

// NewDatabase opens the database named by url. Supported forms are
// sqlite:///path/to/file.db, sqlite:///:memory: and postgres(ql)://...
func NewDatabase(ctx context.Context, url string, logger *slog.Logger) (Database, error) {
	dialector, err := parseDialector(url)
	if err != nil {
		return Database{}, fmt.Errorf("parse database url: %w", err)
	}

	if path, ok := sqlitePath(url); ok && path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return Database{}, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(logger),
	})
	if err != nil {
		return Database{}, fmt.Errorf("open database: %w", err)
	}

	d := Database{db: gdb, driver: dialector.Name()}

	if d.IsSQLite() {
		// One connection keeps :memory: databases shared and serialises writers.
		if err := d.ConfigurePool(1, 1, 0); err != nil {
			return Database{}, err
		}
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return Database{}, fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return Database{}, fmt.Errorf("ping database: %w", err)
	}

	return d, nil
}

func sqlitePath(url string) (string, bool) {
	if !strings.HasPrefix(url, sqlitePrefix) {
		return "", false
	}
	return strings.TrimPrefix(url, sqlitePrefix), true
}

func parseDialector(url string) (gorm.Dialector, error) {
	if path, ok := sqlitePath(url); ok {
		if path == "" {
			return nil, fmt.Errorf("%w: empty sqlite path", ErrUnsupportedDriver)
		}
		if path != memoryPath {
			path += "?_busy_timeout=5000&_foreign_keys=on"
		}
		return sqlite.Open(path), nil
	}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return postgres.Open(url), nil
	}
	return nil, ErrUnsupportedDriver
}

// Session returns a GORM session bound to ctx.
func (d Database) Session(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// IsSQLite reports whether the database is SQLite.
func (d Database) IsSQLite() bool { return d.driver == "sqlite" }

// IsPostgres reports whether the database is PostgreSQL.
func (d Database) IsPostgres() bool { return d.driver == "postgres" }

// ConfigurePool sets connection pool limits. A zero lifetime means no limit.
func (d Database) ConfigurePool(maxOpen, maxIdle int, lifetime time.Duration) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

// Close closes the underlying connection pool.
func (d Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
