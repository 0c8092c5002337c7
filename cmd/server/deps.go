package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"authservice/backend/internal/config"
	domain "authservice/backend/internal/domain/auth"
	"authservice/backend/internal/infrastructure/memory"
	"authservice/backend/internal/infrastructure/password"
	"authservice/backend/internal/infrastructure/postgres"
	"authservice/backend/internal/infrastructure/sqlite"
	"authservice/backend/internal/infrastructure/token"
	"authservice/backend/internal/logging"
	authusecase "authservice/backend/internal/usecase/auth"
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	users   domain.UserRepository
	auth    *authusecase.Service
	closers []func()
}

func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger := logging.Setup("authservice", version, cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	return cfg, logger, nil
}

// newApp opens storage and builds the auth service. With migrate set, pending
// Postgres migrations are applied before the pool is opened.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, migrate bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	users, err := a.openUsers(ctx, migrate)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.users = users

	hasher, err := password.New(cfg.PasswordOptions())
	if err != nil {
		a.Close()
		return nil, oops.Code("CONFIG_INVALID").With("component", "password hasher").Wrap(err)
	}
	tokens, err := token.NewJWTManager([]byte(cfg.JWTSecret), cfg.JWTExpiry, cfg.JWTIssuer)
	if err != nil {
		a.Close()
		return nil, oops.Code("CONFIG_INVALID").With("component", "token manager").Wrap(err)
	}

	a.auth = authusecase.NewService(users, hasher, tokens, logger)
	return a, nil
}

func (a *app) openUsers(ctx context.Context, migrate bool) (domain.UserRepository, error) {
	kind, dsn, err := a.cfg.Storage()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	switch kind {
	case config.StoragePostgres:
		if migrate {
			if err := migratePostgresUp(dsn); err != nil {
				return nil, err
			}
		}
		db, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.logger.InfoContext(ctx, "user directory ready", "storage", kind)
		return postgres.NewUserRepository(db.Pool), nil
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		a.logger.InfoContext(ctx, "user directory ready", "storage", kind, "path", dsn)
		return sqlite.NewUserRepository(db), nil
	default:
		a.logger.WarnContext(ctx, "using in-memory user directory; accounts are lost on restart")
		return memory.NewUserRepository(), nil
	}
}

func migratePostgresUp(dsn string) error {
	m, err := postgres.NewMigrator(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// Close releases storage handles in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
