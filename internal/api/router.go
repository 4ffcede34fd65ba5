package api

import (
	"net/http"
	"time"

	"guardx/internal/api/handler"
	"guardx/internal/api/middleware"
	"guardx/internal/app/service"
	"guardx/internal/common/security"
	"guardx/internal/domain/model"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

func NewRouter(
	cfg RouterConfig,
	tokens *security.TokenIssuer,
	authService *service.AuthService,
	detectionService *service.DetectionService,
	systemService *service.SystemService,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Verifies any bearer token and puts the result in context; routes
	// that need a user add middleware.Authenticator.
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService)
	detectionHandler := handler.NewDetectionHandler(detectionService, cfg.MaxUploadBytes)
	systemHandler := handler.NewSystemHandler(systemService)

	r.Route("/api", func(api chi.Router) {
		api.Group(systemHandler.RegisterPublicRoutes)
		api.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterPublicRoutes(auth)
			auth.Group(func(protected chi.Router) {
				protected.Use(middleware.Authenticator(authService))
				authHandler.RegisterRoutes(protected)
			})
		})

		api.Group(func(secret chi.Router) {
			secret.Use(middleware.Authenticator(authService))
			secret.Use(middleware.RequireClearance(model.ClearanceSecret))
			detectionHandler.RegisterRoutes(secret)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.Authenticator(authService))
			admin.Use(middleware.AdminOnly)
			systemHandler.RegisterAdminRoutes(admin)
		})
	})

	return r
}
