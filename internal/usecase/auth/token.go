package auth

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	// Generate signs a token whose subject is the user's login key.
	Generate(subject string) (string, error)
	// Validate returns the subject of a correctly signed, unexpired token.
	Validate(token string) (string, error)
	// ExpiresInSeconds reports the lifetime of issued tokens.
	ExpiresInSeconds() int64
}
