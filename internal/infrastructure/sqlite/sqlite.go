// Package sqlite implements the user directory on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/samber/oops"
	// Register the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Open opens the database at path (":memory:" for a throwaway store) and
// applies the schema. SQLite serializes writers, so the pool holds a single
// connection; this also keeps an in-memory database alive across calls.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("path", path).Wrap(err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, oops.In("sqlite").Code("SCHEMA_UPGRADE_FAILED").With("path", path).Wrap(err)
	}
	return db, nil
}
