package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"authservice/backend/internal/infrastructure/password"
	"authservice/backend/internal/infrastructure/token"
)

// Storage backends selectable through DATABASE_URL.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort        string `env:"HTTP_PORT"`
	DatabaseURL     string `env:"DATABASE_URL"`
	DatabaseURLFile string `env:"DATABASE_URL_FILE,file"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"authservice"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`

	PasswordHashAlgorithm   string `env:"PASSWORD_HASH_ALGORITHM" envDefault:"bcrypt"`
	BcryptCost              int    `env:"BCRYPT_COST" envDefault:"10"`
	Argon2Time              uint32 `env:"ARGON2_TIME" envDefault:"1"`
	Argon2MemoryKiB         uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Threads           uint8  `env:"ARGON2_THREADS" envDefault:"4"`
	PasswordHashConcurrency int    `env:"PASSWORD_HASH_CONCURRENCY"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"10"`

	AllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	ReadTimeoutSec  int      `env:"HTTP_READ_TIMEOUT" envDefault:"15"`
	WriteTimeoutSec int      `env:"HTTP_WRITE_TIMEOUT" envDefault:"15"`
	IdleTimeoutSec  int      `env:"HTTP_IDLE_TIMEOUT" envDefault:"60"`

	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment, honouring a local .env file.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.HTTPPort == "" {
		cfg.HTTPPort = firstNonEmpty(os.Getenv("PORT"), "8080")
	}
	cfg.AllowedOrigins = cleanList(cfg.AllowedOrigins)
	cfg.PasswordHashAlgorithm = strings.ToLower(strings.TrimSpace(cfg.PasswordHashAlgorithm))
	cfg.DatabaseURL = firstNonEmpty(
		strings.TrimSpace(cfg.DatabaseURL),
		strings.TrimSpace(cfg.DatabaseURLFile),
		composePostgresURL(),
		StorageMemory,
	)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail late or insecurely.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < token.MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", token.MinSecretLength)
	}
	if c.JWTExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}
	switch c.PasswordHashAlgorithm {
	case password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return fmt.Errorf("PASSWORD_HASH_ALGORITHM %q is not supported", c.PasswordHashAlgorithm)
	}
	if c.AuthRateLimit < 0 || c.AuthRateBurst < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT and AUTH_RATE_BURST must not be negative")
	}
	if _, _, err := c.Storage(); err != nil {
		return err
	}
	return nil
}

// Storage splits DATABASE_URL into a backend and the DSN that backend expects.
func (c Config) Storage() (kind, dsn string, err error) {
	raw := strings.TrimSpace(c.DatabaseURL)
	switch {
	case raw == "" || raw == StorageMemory:
		return StorageMemory, "", nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return StoragePostgres, normalisePostgresScheme(raw), nil
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("DATABASE_URL %q has no sqlite path", raw)
		}
		return StorageSQLite, path, nil
	default:
		return "", "", fmt.Errorf("DATABASE_URL scheme not supported; use postgres://, sqlite:// or memory")
	}
}

// PasswordOptions maps the hashing settings onto password.Options.
func (c Config) PasswordOptions() password.Options {
	defaults := password.DefaultArgon2Params()
	return password.Options{
		Algorithm:  c.PasswordHashAlgorithm,
		BcryptCost: c.BcryptCost,
		Argon2: password.Argon2Params{
			Time:      c.Argon2Time,
			MemoryKiB: c.Argon2MemoryKiB,
			Threads:   c.Argon2Threads,
			SaltLen:   defaults.SaltLen,
			KeyLen:    defaults.KeyLen,
		},
		MaxConcurrent: c.PasswordHashConcurrency,
	}
}

// ReadTimeout returns the HTTP read timeout.
func (c Config) ReadTimeout() time.Duration { return time.Duration(c.ReadTimeoutSec) * time.Second }

// WriteTimeout returns the HTTP write timeout.
func (c Config) WriteTimeout() time.Duration { return time.Duration(c.WriteTimeoutSec) * time.Second }

// IdleTimeout returns the HTTP idle timeout.
func (c Config) IdleTimeout() time.Duration { return time.Duration(c.IdleTimeoutSec) * time.Second }

func cleanList(values []string) []string {
	parts := []string{}
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}

// composePostgresURL builds a DSN from libpq-style PG* variables. It returns ""
// unless both PGHOST and PGUSER are set.
func composePostgresURL() string {
	host := os.Getenv("PGHOST")
	user := os.Getenv("PGUSER")
	if host == "" || user == "" {
		return ""
	}
	port := firstNonEmpty(os.Getenv("PGPORT"), "5432")
	database := firstNonEmpty(os.Getenv("PGDATABASE"), user)

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if pw := os.Getenv("PGPASSWORD"); pw != "" {
		dsn.User = neturl.UserPassword(user, pw)
	}
	query := dsn.Query()
	query.Set("sslmode", firstNonEmpty(os.Getenv("PGSSLMODE"), "require"))
	dsn.RawQuery = query.Encode()
	return dsn.String()
}

func normalisePostgresScheme(url string) string {
	if strings.HasPrefix(url, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(url, "postgresql://")
	}
	return url
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// loadDotEnv sets variables from path. Variables already present in the
// environment win and a missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
