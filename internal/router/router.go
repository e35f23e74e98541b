package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-med-predict/docs"
	"go-med-predict/internal/config"
	"go-med-predict/internal/handler"
	"go-med-predict/internal/middleware"
	"go-med-predict/internal/model"
)

func New(
	cfg *config.Config,
	limitStore middleware.LimitStore,
	authMiddleware *middleware.AuthMiddleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	predictHandler *handler.PredictHandler,
	healthHandler *handler.HealthHandler,
	auditHandler *handler.AuditHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, limitStore, cfg.TrustedProxyPrefixes())

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Get("/", healthHandler.Index)
		api.Get("/health", healthHandler.Health)

		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Post("/reset-password", authHandler.ResetPassword)

		api.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.Get("/me", authHandler.Me)
			protected.Post("/mole/predict", predictHandler.Mole)
			protected.Post("/eye/predict", predictHandler.Eye)
			protected.Post("/period/predict", predictHandler.Period)

			protected.With(authMiddleware.RequireRoles(model.RoleAdmin)).Get("/users", userHandler.List)
			protected.With(authMiddleware.RequireRoles(model.RoleAdmin)).Get("/users/{id}", userHandler.Get)
			protected.With(authMiddleware.RequireRoles(model.RoleAdmin)).Get("/audit", auditHandler.List)
		})
	})

	return r
}
