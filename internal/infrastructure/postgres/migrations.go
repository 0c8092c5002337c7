package postgres

import (
	"embed"
	"errors"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5:// driver.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// schemaRunner is what Migrator needs from golang-migrate.
type schemaRunner interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator versions the users schema.
type Migrator struct {
	m schemaRunner
}

func schemaErr(step string) oops.OopsErrorBuilder {
	return oops.In("postgres").Code("SCHEMA_" + step + "_FAILED").With("step", strings.ToLower(step))
}

// NewMigrator opens the embedded users schema against a postgres:// or
// postgresql:// URL.
func NewMigrator(databaseURL string) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, schemaErr("SOURCE").Wrap(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		_ = src.Close()
		return nil, schemaErr("CONNECT").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

// migrateURL maps the postgres schemes onto pgx5, the scheme the pgx/v5
// driver is registered under.
func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up brings the users table to the latest version. An up-to-date schema is
// not an error.
func (m *Migrator) Up() error {
	err := m.m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return schemaErr("UPGRADE").Wrap(err)
}

// Down drops the users table and everything in it.
func (m *Migrator) Down() error {
	err := m.m.Down()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return schemaErr("DOWNGRADE").Wrap(err)
}

// Version reports 0 on a database that was never migrated.
func (m *Migrator) Version() (uint, bool, error) {
	v, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, schemaErr("VERSION").Wrap(err)
	}
	return v, dirty, nil
}

// Force marks the schema as being at version without running anything. Used
// to clear a dirty flag after a failed upgrade was repaired by hand. Version
// 0 means no migration applied; any other value must be a shipped migration.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.In("postgres").Code("SCHEMA_VERSION_INVALID").
			With("version", version).
			Errorf("schema version must be non-negative")
	}
	if version > 0 && !shippedVersion(version) {
		return oops.In("postgres").Code("SCHEMA_VERSION_INVALID").
			With("version", version).
			Errorf("no users migration has version %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return schemaErr("FORCE").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases both the embedded source and the database connection.
func (m *Migrator) Close() error {
	if err := errors.Join(m.m.Close()); err != nil {
		return schemaErr("CLOSE").Wrap(err)
	}
	return nil
}

// shippedVersion reports whether an embedded migration carries version.
func shippedVersion(version int) bool {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(prefix); err == nil && n == version {
			return true
		}
	}
	return false
}
