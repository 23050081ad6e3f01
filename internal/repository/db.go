package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// NewDB opens a connection pool for the given driver. MySQL is the production
// backend; SQLite serves local development and tests.
func NewDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// A second connection to ":memory:" would see a different database.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		slog.Warn("database ping failed", "driver", driver, "error", err)
	}

	return db, nil
}
