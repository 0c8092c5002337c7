package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"authservice/backend/internal/config"
	domain "authservice/backend/internal/domain/auth"
	authusecase "authservice/backend/internal/usecase/auth"
)

// limiterTTL is how long an idle client keeps its rate-limit bucket.
const limiterTTL = 10 * time.Minute

// AuthService is the slice of the auth use case the HTTP layer drives.
type AuthService interface {
	Signup(ctx context.Context, input authusecase.SignupInput) (*domain.User, error)
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error)
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
}

var _ AuthService = (*authusecase.Service)(nil)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer  *http.Server
	router      *http.ServeMux
	handler     http.Handler
	authService AuthService
	logger      *slog.Logger
	limiter     *multiLimiter
	gatherer    prometheus.Gatherer
	addr        string
}

// NewServer constructs a new Server with configured dependencies. A nil
// gatherer leaves /metrics unregistered.
func NewServer(cfg config.Config, authService AuthService, logger *slog.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	handler := withLogging(logger, withCORS(mux, cfg.AllowedOrigins))

	srv := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout(),
			WriteTimeout: cfg.WriteTimeout(),
			IdleTimeout:  cfg.IdleTimeout(),
		},
		router:      mux,
		handler:     handler,
		authService: authService,
		logger:      logger,
		gatherer:    gatherer,
		addr:        addr,
	}
	if cfg.AuthRateLimit > 0 {
		srv.limiter = newMultiLimiter(rate.Limit(cfg.AuthRateLimit), cfg.AuthRateBurst, limiterTTL)
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/auth/signup", s.rateLimited(http.HandlerFunc(s.handleSignup)))
	s.router.Handle("/auth/login", s.rateLimited(http.HandlerFunc(s.handleLogin)))
	s.router.Handle("/users/me", s.authMiddleware(http.HandlerFunc(s.handleMe)))
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Start serves HTTP on the configured address until Shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
