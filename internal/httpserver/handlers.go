package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"

	domain "authservice/backend/internal/domain/auth"
	authusecase "authservice/backend/internal/usecase/auth"
)

// maxBodyBytes caps request bodies on the auth endpoints.
const maxBodyBytes = 1 << 20

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type loginResponse struct {
	Token    string `json:"token"`
	ExpireIn int64  `json:"expireIn"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.writeProblem(w, r, err)
		return
	}

	user, err := s.authService.Signup(r.Context(), authusecase.SignupInput{
		Email:    payload.Email,
		FullName: payload.FullName,
		Password: payload.Password,
	})
	if err != nil {
		s.writeProblem(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &payload); err != nil {
		s.writeProblem(w, r, err)
		return
	}

	result, err := s.authService.Login(r.Context(), domain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		s.writeProblem(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:    result.Token,
		ExpireIn: result.ExpiresIn,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	user, ok := currentUserFromContext(r.Context())
	if !ok {
		s.writeProblem(w, r, domain.ErrAccessDenied)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			s.writeProblem(w, r, domain.ErrAccessDenied)
			return
		}

		user, err := s.authService.VerifyToken(r.Context(), token)
		if err != nil {
			s.writeProblem(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(ctxKeyUser{}).(*domain.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

type ctxKeyUser struct{}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// decodeJSON reads a single JSON object from the body. Any decoding failure
// is reported as invalid input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return oops.Code("REQUEST_BODY_INVALID").With("cause", err.Error()).Wrap(domain.ErrInvalidInput)
	}
	return nil
}
