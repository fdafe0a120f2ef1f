package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/tmsiti/backend/internal/middleware"
	"github.com/tmsiti/backend/internal/models"
	"github.com/tmsiti/backend/internal/ratelimit"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth       *AuthHandler
	Menu       *MenuHandler
	Categories *CategoryHandler
	Documents  *DocumentHandler
	Users      *UserHandler
	Health     *HealthHandler
}

// RouterConfig holds the ingress settings of the router.
type RouterConfig struct {
	Limiter       *ratelimit.Limiter
	Authenticator middleware.Authenticator
	AllowedHosts  []string
	FrontendURL   string
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxyHeaders bool
	RequestTimeout    time.Duration
}

// NewRouter constructs the HTTP handler that serves the portal API.
//
// Middleware chain (applied in order):
//  1. RealIP (only with TrustProxyHeaders)
//  2. WithRequestLogging
//  3. Recoverer
//  4. TrustedHosts
//  5. CORS for FrontendURL
//  6. Timeout (RequestTimeout)
//
// Under /api every route is rate limited by class before any token or
// database work, and request bodies must be application/json.
func NewRouter(h Handlers, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.TrustedHosts(cfg.AllowedHosts, logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", h.Health.Health)

	limit := func(class ratelimit.Class) func(http.Handler) http.Handler {
		return middleware.RateLimit(cfg.Limiter, class, logger)
	}
	requireAuth := middleware.RequireAuth(cfg.Authenticator, logger)
	can := func(p models.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(p, logger)
	}

	r.Route("/api", func(r chi.Router) {
		// Only allow request bodies with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(ratelimit.ClassLogin)).Post("/login", h.Auth.Login)
			r.With(limit(ratelimit.ClassRegister)).Post("/register", h.Auth.Register)
			r.With(limit(ratelimit.ClassRead), requireAuth).Get("/me", h.Auth.Me)
			r.With(limit(ratelimit.ClassWrite)).Post("/logout", h.Auth.Logout)
		})

		r.Route("/menu", func(r chi.Router) {
			r.With(limit(ratelimit.ClassRead)).Get("/", h.Menu.List)
			r.With(limit(ratelimit.ClassRead)).Get("/{id}", h.Menu.Get)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Post("/", h.Menu.Create)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Put("/{id}", h.Menu.Update)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermDelete)).Delete("/{id}", h.Menu.Delete)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.With(limit(ratelimit.ClassRead)).Get("/", h.Categories.List)
				r.With(limit(ratelimit.ClassRead)).Get("/{id}", h.Categories.Get)
				r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Post("/", h.Categories.Create)
				r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Put("/{id}", h.Categories.Update)
				r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermDelete)).Delete("/{id}", h.Categories.Delete)
			})

			r.With(limit(ratelimit.ClassRead)).Get("/", h.Documents.List)
			r.With(limit(ratelimit.ClassRead)).Get("/{id}", h.Documents.Get)
			r.With(limit(ratelimit.ClassRead), middleware.OptionalAuth(cfg.Authenticator)).Post("/{id}/download", h.Documents.Download)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Post("/", h.Documents.Create)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Put("/{id}", h.Documents.Update)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermWrite)).Post("/{id}/file", h.Documents.AttachFile)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermDelete)).Delete("/{id}", h.Documents.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(limit(ratelimit.ClassRead), requireAuth, can(models.PermManageUsers)).Get("/", h.Users.List)
			r.With(limit(ratelimit.ClassRead), requireAuth, can(models.PermManageUsers)).Get("/{id}", h.Users.Get)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermManageUsers)).Put("/{id}", h.Users.Update)
			r.With(limit(ratelimit.ClassWrite), requireAuth, can(models.PermManageUsers)).Delete("/{id}", h.Users.Delete)
		})
	})

	return r
}
