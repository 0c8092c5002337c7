package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"authservice/backend/internal/config"
	domain "authservice/backend/internal/domain/auth"
	"authservice/backend/internal/logging"
	authusecase "authservice/backend/internal/usecase/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "migrate", "hash-password", "disable-user", "enable-user"} {
		assert.Contains(t, names, want)
	}
}

func TestHashPassword_FromStdin(t *testing.T) {
	out, err := execute(t, "pw123\n", "hash-password", "--bcrypt-cost", "4")
	require.NoError(t, err)

	hashed := strings.TrimSpace(out)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hashed), []byte("pw123")))
	assert.NotContains(t, out, "pw123")
}

func TestHashPassword_Argon2id(t *testing.T) {
	out, err := execute(t, "pw123", "hash-password", "--algorithm", "argon2id")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "$argon2id$"))
}

func TestHashPassword_RejectsEmptyInput(t *testing.T) {
	_, err := execute(t, "\n", "hash-password", "--bcrypt-cost", "4")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHashPassword_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := execute(t, "pw", "hash-password", "--algorithm", "md5")
	require.Error(t, err)
}

func TestAccountState_DisableAndEnable(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "auth.db"))
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := config.Load()
	require.NoError(t, err)
	ctx := context.Background()
	logger := logging.Setup("authservice", "test", "json", "error", &bytes.Buffer{})

	a, err := newApp(ctx, cfg, logger, false)
	require.NoError(t, err)
	_, err = a.auth.Signup(ctx, authusecase.SignupInput{Email: "a@x.com", FullName: "A", Password: "pw123"})
	require.NoError(t, err)
	a.Close()

	out, err := execute(t, "", "disable-user", "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled: true")

	a, err = newApp(ctx, cfg, logger, false)
	require.NoError(t, err)
	_, err = a.auth.Authenticate(ctx, domain.Credentials{Email: "a@x.com", Password: "pw123"})
	require.ErrorIs(t, err, domain.ErrAccountDisabled)
	a.Close()

	_, err = execute(t, "", "enable-user", "a@x.com")
	require.NoError(t, err)

	a, err = newApp(ctx, cfg, logger, false)
	require.NoError(t, err)
	defer a.Close()
	_, err = a.auth.Authenticate(ctx, domain.Credentials{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)
}

func TestAccountState_UnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "auth.db"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "", "disable-user", "ghost@x.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestAccountState_RequiresConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "", "disable-user", "a@x.com")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
}

type fakeMigrator struct {
	upCalls int
	upErr   error
	forced  int
	closed  bool
}

func (f *fakeMigrator) Up() error                    { f.upCalls++; return f.upErr }
func (f *fakeMigrator) Down() error                  { return nil }
func (f *fakeMigrator) Version() (uint, bool, error) { return 1, false, nil }
func (f *fakeMigrator) Force(v int) error            { f.forced = v; return nil }
func (f *fakeMigrator) Close() error                 { f.closed = true; return nil }

func stubMigrator(t *testing.T, fake *fakeMigrator) *string {
	t.Helper()
	var gotDSN string
	orig := newMigrator
	newMigrator = func(dsn string) (migrator, error) {
		gotDSN = dsn
		return fake, nil
	}
	t.Cleanup(func() { newMigrator = orig })
	return &gotDSN
}

func TestMigrate_Postgres(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgresql://u:p@db:5432/auth")
	fake := &fakeMigrator{}
	dsn := stubMigrator(t, fake)

	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.upCalls)
	assert.True(t, fake.closed)
	assert.Equal(t, "postgres://u:p@db:5432/auth", *dsn)
	assert.Contains(t, out, "Migrations completed successfully")

	out, err = execute(t, "", "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1 (dirty: false)")

	_, err = execute(t, "", "migrate", "force", "1")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.forced)
}

func TestMigrate_UpFailure(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://db/auth")
	stubMigrator(t, &fakeMigrator{upErr: errors.New("boom")})

	_, err := execute(t, "", "migrate", "up")
	require.Error(t, err)
}

func TestMigrate_SQLiteAndMemory(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "auth.db"))
	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations completed successfully")

	_, err = execute(t, "", "migrate", "version")
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "memory")
	out, err = execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "no schema")
}

func TestParseForceVersion(t *testing.T) {
	v, err := parseForceVersion("3")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	for _, bad := range []string{"", "abc", "-1", "1.5"} {
		_, err := parseForceVersion(bad)
		require.Error(t, err, bad)
		oopsErr, ok := oops.AsOops(err)
		require.True(t, ok)
		assert.Equal(t, "SCHEMA_VERSION_INVALID", oopsErr.Code())
	}
}
