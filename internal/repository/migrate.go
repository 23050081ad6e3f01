package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Schema selects which service's tables to migrate. The auth and account
// services own separate databases.
type Schema string

const (
	SchemaAuth    Schema = "auth"
	SchemaAccount Schema = "account"
)

//go:embed migrations
var migrations embed.FS

// MigrationsTable is the version table for schema. Each schema keeps its own so
// both services can migrate into the same database.
func (s Schema) MigrationsTable() string {
	return "schema_migrations_" + string(s)
}

// Migrate applies any pending migrations for schema using the embedded SQL files.
func Migrate(db *sql.DB, driver string, schema Schema) error {
	var (
		dbDriver database.Driver
		err      error
	)
	switch driver {
	case DriverMySQL:
		dbDriver, err = migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: schema.MigrationsTable()})
	case DriverSQLite:
		dbDriver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: schema.MigrationsTable()})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	source, err := iofs.New(migrations, fmt.Sprintf("migrations/%s/%s", driver, schema))
	if err != nil {
		return fmt.Errorf("opening migration source: %w", err)
	}

	instance, err := migrate.NewWithInstance("iofs", source, driver, dbDriver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	return nil
}
