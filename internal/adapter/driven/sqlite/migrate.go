package sqlite

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema means a migration failed partway and the api_tokens schema
// needs manual repair before the service can use it.
var ErrDirtySchema = errors.New("api token schema is dirty")

// Migrate applies every embedded api token migration not yet recorded in the
// database and returns the resulting schema version. Running it against an
// up-to-date database changes nothing.
func (db *DB) Migrate() (uint, error) {
	m, err := db.migrator()
	if err != nil {
		return 0, err
	}

	if _, err := schemaVersion(m); errors.Is(err, ErrDirtySchema) {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply api token migrations: %w", err)
	}

	return schemaVersion(m)
}

// SchemaVersion reports the applied api token schema version. Zero means no
// migration has run yet.
func (db *DB) SchemaVersion() (uint, error) {
	m, err := db.migrator()
	if err != nil {
		return 0, err
	}
	return schemaVersion(m)
}

// migrator binds the embedded migrations to the writer connection.
// The returned Migrate is never closed, since that would close db.Writer.
func (db *DB) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	target, err := migratesqlite.WithInstance(db.Writer, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("bind migrations to %s: %w", db.path, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func schemaVersion(m *migrate.Migrate) (uint, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return version, nil
}
