package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Schema files live next to the repository and ship inside the binary.
const migrationsDir = "migrations"

//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations brings the imports and records tables at dbPath up to the
// latest schema. An up-to-date database is not an error. The migrator gets
// a dedicated handle because closing it closes the underlying database.
func RunMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("migrate %s: open: %w", dbPath, err)
	}
	defer db.Close()

	target, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrate %s: sqlite target: %w", dbPath, err)
	}
	schema, err := iofs.New(schemaFS, migrationsDir)
	if err != nil {
		return fmt.Errorf("migrate %s: embedded schema: %w", dbPath, err)
	}

	m, err := migrate.NewWithInstance("iofs", schema, "sqlite", target)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case err == nil, errors.Is(err, migrate.ErrNoChange):
		return nil
	default:
		return fmt.Errorf("migrate %s: apply schema: %w", dbPath, err)
	}
}
