package auth

import (
	"errors"
)

// Kind is the stable, machine-readable category of an authentication failure.
type Kind string

const (
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindAccountDisabled    Kind = "ACCOUNT_DISABLED"
	KindAccessDenied       Kind = "ACCESS_DENIED"
	KindInvalidSignature   Kind = "INVALID_SIGNATURE"
	KindTokenExpired       Kind = "TOKEN_EXPIRED"
	KindMalformedToken     Kind = "MALFORMED_TOKEN"
	KindDuplicateIdentity  Kind = "DUPLICATE_IDENTITY"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindInternal           Kind = "INTERNAL"
)

var (
	// ErrInvalidCredentials indicates a login failure. Unknown email and wrong
	// password both surface as this error.
	ErrInvalidCredentials = errors.New("bad credentials")
	// ErrAccountDisabled indicates the account exists but may not sign in.
	ErrAccountDisabled = errors.New("user account is locked")
	// ErrAccessDenied indicates the caller is not allowed to reach the resource.
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidSignature means the token signature does not match its claims.
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrTokenExpired means the token was valid but its lifetime has elapsed.
	ErrTokenExpired = errors.New("token has expired")
	// ErrMalformedToken means the token could not be parsed into claims.
	ErrMalformedToken = errors.New("token is malformed")
	// ErrDuplicateIdentity signals a duplicate email registration.
	ErrDuplicateIdentity = errors.New("email already registered")
	// ErrInvalidInput indicates a request that fails basic validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRateLimited indicates too many attempts from one client.
	ErrRateLimited = errors.New("too many requests")

	// ErrUserNotFound indicates a missing user. Repositories return it for
	// absence; it never leaves the usecase layer.
	ErrUserNotFound = errors.New("user not found")
	// ErrMalformedHash indicates a stored credential hash that cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrAccountDisabled, KindAccountDisabled},
	{ErrAccessDenied, KindAccessDenied},
	{ErrInvalidSignature, KindInvalidSignature},
	{ErrTokenExpired, KindTokenExpired},
	{ErrMalformedToken, KindMalformedToken},
	{ErrDuplicateIdentity, KindDuplicateIdentity},
	{ErrInvalidInput, KindInvalidInput},
	{ErrRateLimited, KindRateLimited},
}

// KindOf classifies err. Anything outside the known taxonomy is KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
