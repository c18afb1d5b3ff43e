package http

import (
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/beauty-assistant-api/internal/analysis"
	"github.com/redmonkez12/beauty-assistant-api/internal/auth"
	"github.com/redmonkez12/beauty-assistant-api/internal/config"
	"github.com/redmonkez12/beauty-assistant-api/internal/logging"
	"github.com/redmonkez12/beauty-assistant-api/internal/recommendation"
	"github.com/redmonkez12/beauty-assistant-api/internal/user"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth            *auth.Handler
	AuthMiddleware  *auth.Middleware
	Users           *user.Handler
	Analysis        *analysis.Handler
	Recommendations *recommendation.Handler
	Health          *HealthHandler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first. Credentials cannot be combined with a wildcard origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: !slices.Contains(cfg.CORS.AllowedOrigins, "*"),
		MaxAge:           300, // 5 minutes
	}))

	// Global middleware
	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment())) // Security headers on all responses
	r.Use(middleware.Recoverer)                         // Recover from panics
	r.Use(middleware.RequestID)                         // Add request ID
	r.Use(middleware.RealIP)                            // Set RemoteAddr to real IP
	r.Use(logging.RequestLogger(logger))                // Structured logging with request context
	r.Use(middleware.Compress(5))                       // Compress responses

	// Public routes
	r.Get("/", h.Health.Root)
	r.Get("/health", h.Health.Health)

	// Swagger UI - only in development
	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		logger.Info("swagger UI disabled (production mode)")
	}

	// Auth routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.With(h.AuthMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
	})

	// Protected routes (require authentication)
	r.Route("/users/me", func(r chi.Router) {
		r.Use(h.AuthMiddleware.RequireAuth)
		r.Get("/", h.Users.Me)
		r.Patch("/", h.Users.UpdateMe)
		r.Post("/password", h.Auth.ChangePassword)
	})

	r.Post("/analysis/face", h.Analysis.AnalyzeFace)
	r.Get("/recommendations", h.Recommendations.List)

	return r
}
