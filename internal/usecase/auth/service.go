package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	domain "authservice/backend/internal/domain/auth"
	"authservice/backend/internal/metrics"
)

// dummyPassword is hashed once and verified against when the email is unknown,
// so unknown-email and wrong-password logins cost the same.
const dummyPassword = "unknown-account-placeholder"

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  TokenManager
	logger  *slog.Logger
	nowFunc func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher PasswordHasher, tokens TokenManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// SignupInput carries the registration form.
type SignupInput struct {
	Email    string
	FullName string
	Password string
}

// Signup creates a new user and returns the persisted entity without a password hash.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	user, err := s.signup(ctx, input)
	metrics.RecordSignup(outcome(err))
	return user, err
}

func (s *Service) signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		return nil, oops.Code("SIGNUP_INVALID_EMAIL").Wrap(domain.ErrInvalidInput)
	}
	if input.Password == "" {
		return nil, oops.Code("SIGNUP_PASSWORD_REQUIRED").Wrap(domain.ErrInvalidInput)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateIdentity
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, oops.Code("SIGNUP_FAILED").With("operation", "find user by email").Wrap(err)
	}

	hashed, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return nil, oops.Code("SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}

	now := s.nowFunc().UTC()
	saved, err := s.users.Save(ctx, &domain.User{
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, oops.Code("SIGNUP_FAILED").With("operation", "save user").Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", saved.ID)
	return saved.Sanitized(), nil
}

// Authenticate verifies credentials and returns the matching user.
//
// Unknown email and wrong password both return domain.ErrInvalidCredentials.
// A disabled account is only reported once the password has been verified.
func (s *Service) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_, _ = s.hasher.Verify(ctx, creds.Password, s.dummy(ctx))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "find user by email").Wrap(err)
	}

	ok, err := s.hasher.Verify(ctx, creds.Password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, domain.ErrAccountDisabled
	}

	s.rehashIfNeeded(ctx, user, creds.Password)
	return user.Sanitized(), nil
}

// Login authenticates the user and issues a signed token for them.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	result, err := s.login(ctx, creds)
	metrics.RecordLogin(outcome(err))
	return result, err
}

func (s *Service) login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	user, err := s.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").With("operation", "generate token").Wrap(err)
	}

	return &domain.LoginResult{
		Token:     token,
		ExpiresIn: s.tokens.ExpiresInSeconds(),
		User:      user,
	}, nil
}

// VerifyToken validates a bearer token and returns the associated user.
func (s *Service) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.verifyToken(ctx, token)
	metrics.RecordTokenValidation(outcome(err))
	return user, err
}

func (s *Service) verifyToken(ctx context.Context, token string) (*domain.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrAccessDenied
		}
		return nil, oops.Code("TOKEN_VERIFY_FAILED").With("operation", "find user by email").Wrap(err)
	}
	if user.Disabled {
		return nil, domain.ErrAccountDisabled
	}
	return user.Sanitized(), nil
}

// SetAccountDisabled locks or unlocks the account registered under email.
func (s *Service) SetAccountDisabled(ctx context.Context, email string, disabled bool) error {
	email = normalizeEmail(email)
	if email == "" {
		return oops.Code("ACCOUNT_EMAIL_REQUIRED").Wrap(domain.ErrInvalidInput)
	}
	if err := s.users.SetDisabled(ctx, email, disabled, s.nowFunc().UTC()); err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("disabled", disabled).Wrap(err)
	}
	s.logger.InfoContext(ctx, "account state changed", "disabled", disabled)
	return nil
}

// rehashIfNeeded upgrades hashes made with outdated parameters. Failures are
// logged; the login itself already succeeded.
func (s *Service) rehashIfNeeded(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed, s.nowFunc().UTC()); err != nil {
		s.logger.WarnContext(ctx, "password rehash not persisted", "user_id", user.ID, "error", err)
		return
	}
	s.logger.InfoContext(ctx, "password hash upgraded", "user_id", user.ID)
}

func (s *Service) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		hashed, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			s.logger.WarnContext(ctx, "dummy hash unavailable", "error", err)
			return
		}
		s.dummyHash = hashed
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, domainPart, ok := strings.Cut(email, "@")
	return ok && domainPart != ""
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	return strings.ToLower(string(domain.KindOf(err)))
}
