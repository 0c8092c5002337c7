package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"authservice/backend/internal/config"
	"authservice/backend/internal/infrastructure/postgres"
	"authservice/backend/internal/infrastructure/sqlite"
)

// migrator is the Postgres migration surface the subcommands drive.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Force(version int) error
	Close() error
}

// newMigrator is a test seam.
var newMigrator = func(dsn string) (migrator, error) {
	return postgres.NewMigrator(dsn)
}

// NewMigrateCmd creates the migrate command and its subcommands. Bare
// "migrate" applies pending migrations.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or inspect schema migrations for the configured DATABASE_URL.
Postgres uses versioned migrations; SQLite applies its embedded schema.`,
		RunE: runMigrateUp,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration (drops all data)",
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, _ []string) error {
			v, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version %d (dirty: %t)\n", v, dirty)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(cmd *cobra.Command, m migrator, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			if err := m.Force(v); err != nil {
				return err
			}
			cmd.Printf("Forced version %d\n", v)
			return nil
		}),
	})
	return cmd
}

func parseForceVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, oops.Code("SCHEMA_VERSION_INVALID").With("input", s).Errorf("version must be a non-negative integer")
	}
	return v, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	kind, dsn, err := cfg.Storage()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	switch kind {
	case config.StoragePostgres:
		m, err := newMigrator(dsn)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return err
		}
	case config.StorageSQLite:
		db, err := sqlite.Open(commandContext(cmd), dsn)
		if err != nil {
			return err
		}
		_ = db.Close()
	default:
		cmd.Println("In-memory storage has no schema to migrate")
		return nil
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

// withMigrator opens a Postgres migrator for the configured database.
func withMigrator(run func(cmd *cobra.Command, m migrator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}
		kind, dsn, err := cfg.Storage()
		if err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}
		if kind != config.StoragePostgres {
			return oops.Code("CONFIG_INVALID").With("storage", kind).Errorf("%s storage has no versioned migrations", kind)
		}
		m, err := newMigrator(dsn)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return run(cmd, m, args)
	}
}
