// Package problem maps authentication failures onto the stable, caller-facing
// error vocabulary. Translate is pure: it neither logs nor writes.
package problem

import (
	"net/http"

	domain "authservice/backend/internal/domain/auth"
)

// Detail is an RFC 7807 problem document extended with a machine-readable code
// and a human-readable description.
type Detail struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Status      int    `json:"status"`
	Detail      string `json:"detail"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type mapping struct {
	status      int
	description string
}

// INVALID_SIGNATURE and TOKEN_EXPIRED share one description; only the code
// tells them apart.
var table = map[domain.Kind]mapping{
	domain.KindInvalidCredentials: {http.StatusUnauthorized, "Invalid username or password"},
	domain.KindAccountDisabled:    {http.StatusForbidden, "Account is locked"},
	domain.KindAccessDenied:       {http.StatusForbidden, "Access denied"},
	domain.KindInvalidSignature:   {http.StatusForbidden, "The token has expired"},
	domain.KindTokenExpired:       {http.StatusForbidden, "The token has expired"},
	domain.KindMalformedToken:     {http.StatusForbidden, "The token is invalid"},
	domain.KindDuplicateIdentity:  {http.StatusConflict, "Email is already registered"},
	domain.KindInvalidInput:       {http.StatusBadRequest, "The request is invalid"},
	domain.KindRateLimited:        {http.StatusTooManyRequests, "Too many requests"},
}

var details = map[domain.Kind]error{
	domain.KindInvalidCredentials: domain.ErrInvalidCredentials,
	domain.KindAccountDisabled:    domain.ErrAccountDisabled,
	domain.KindAccessDenied:       domain.ErrAccessDenied,
	domain.KindInvalidSignature:   domain.ErrInvalidSignature,
	domain.KindTokenExpired:       domain.ErrTokenExpired,
	domain.KindMalformedToken:     domain.ErrMalformedToken,
	domain.KindDuplicateIdentity:  domain.ErrDuplicateIdentity,
	domain.KindInvalidInput:       domain.ErrInvalidInput,
	domain.KindRateLimited:        domain.ErrRateLimited,
}

const (
	internalDescription = "An error occurred while processing the request"
	internalDetail      = "internal server error"
)

// Translate reduces err to its external shape. Only the sentinel message of a
// classified failure is exposed; wrapped context never is.
func Translate(err error) Detail {
	kind := domain.KindOf(err)
	m, ok := table[kind]
	if !ok {
		return Detail{
			Type:        "about:blank",
			Title:       http.StatusText(http.StatusInternalServerError),
			Status:      http.StatusInternalServerError,
			Detail:      internalDetail,
			Code:        string(domain.KindInternal),
			Description: internalDescription,
		}
	}
	return Detail{
		Type:        "about:blank",
		Title:       http.StatusText(m.status),
		Status:      m.status,
		Detail:      details[kind].Error(),
		Code:        string(kind),
		Description: m.description,
	}
}

// IsInternal reports whether d is the catch-all response.
func (d Detail) IsInternal() bool {
	return d.Status == http.StatusInternalServerError
}
