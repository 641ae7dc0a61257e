package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rentdesk/client-go/internal/api/handler"
	"github.com/rentdesk/client-go/internal/api/middleware"
	"github.com/rentdesk/client-go/internal/core/domain"
	"github.com/rentdesk/client-go/internal/session"
)

// NewRouter builds the portal's Echo instance with all routes
// registered. rdb may be nil when the session store is not Redis-backed.
func NewRouter(sess *session.Manager, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("rentdesk_portal"))

	portal := handler.NewPortal(sess, log)

	// --- Public routes ---
	e.GET("/login", portal.LoginPage)
	e.POST("/login", portal.Login)
	e.GET("/register", portal.RegisterPage)
	e.POST("/register", portal.Register)
	e.POST("/logout", portal.Logout)
	e.GET("/unauthorized", portal.Unauthorized)

	// --- Guarded routes ---
	anyRole := middleware.Guard(sess, middleware.GuardConfig{})
	adminOnly := middleware.Guard(sess, middleware.GuardConfig{
		AllowedRoles: []domain.Role{domain.RoleAdmin},
	})
	landlords := middleware.Guard(sess, middleware.GuardConfig{
		AllowedRoles: []domain.Role{domain.RoleAdmin, domain.RoleLandlord},
	})

	e.GET("/dashboard", portal.Dashboard, anyRole)
	e.GET("/admin", portal.Section("Administration"), adminOnly)
	e.GET("/properties", portal.Section("Properties"), landlords)
	e.GET("/profile", portal.ProfilePage, anyRole)
	e.POST("/profile", portal.UpdateProfile, anyRole)
	e.POST("/password", portal.ChangePassword, anyRole)

	// --- Observability (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(rdb)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	return e
}
