package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/capachica/turismo-api/docs"
	"github.com/capachica/turismo-api/internal/api/handler"
	"github.com/capachica/turismo-api/internal/api/middleware"
	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
	"github.com/capachica/turismo-api/internal/pkg/ids"
)

// bodyLimit covers a 5MB photo plus multipart framing.
const bodyLimit = "6M"

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth       ports.AuthService
	Listings   ports.ListingService
	Users      ports.UserService
	Catalogs   ports.CatalogService
	RBAC       ports.RBACService
	AccessLogs ports.AccessLogService

	Tokens      ports.TokenVerifier
	Revocations ports.RevocationChecker

	// Limiter throttles the credential endpoints; nil disables rate limiting.
	Limiter middleware.Limiter
	// Readiness lists the dependencies checked by /health/ready.
	Readiness map[string]handler.PingFunc
}

type Options struct {
	Production   bool
	AllowOrigins []string
	Log          zerolog.Logger
	// Registry receives the HTTP metrics; nil uses the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log, opts.Production)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: ids.New}))
	e.Use(metricsMiddleware(opts.Registry))
	e.Use(requestLogger(opts.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	authenticate := middleware.Authenticate(deps.Tokens, deps.Revocations)
	optionalIdentity := middleware.OptionalIdentity(deps.Tokens, deps.Revocations)
	adminOnly := middleware.RequireRoles(domain.RoleAdmin)
	entrepreneurs := middleware.RequireRoles(domain.RoleEntrepreneur, domain.RoleAdmin)

	throttle := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if deps.Limiter != nil {
		throttle = middleware.RateLimit(deps.Limiter, opts.Log)
	}

	// --- Health, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", metricsHandler(opts.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Auth ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register, throttle)
	auth.POST("/login", authHandler.Login, throttle)
	auth.POST("/resend-verification", authHandler.ResendVerification, throttle)
	auth.POST("/request-password-reset", authHandler.RequestPasswordReset, throttle)
	auth.POST("/reset-password", authHandler.ResetPassword, throttle)
	auth.GET("/verify-email/:token", authHandler.VerifyEmail)
	auth.POST("/logout", authHandler.Logout, authenticate)

	// --- Catalogs ---
	catalogHandler := handler.NewCatalogHandler(deps.Catalogs)
	catalogs := api.Group("/catalogs")
	catalogs.GET("/countries", catalogHandler.Countries)
	catalogs.GET("/subdivisions", catalogHandler.Subdivisions)

	// --- Emprendimientos ---
	listingHandler := handler.NewListingHandler(deps.Listings)
	listings := api.Group("/emprendimientos")
	listings.GET("", listingHandler.List, optionalIdentity)
	listings.POST("", listingHandler.Create, authenticate, entrepreneurs)
	listings.GET("/my/list", listingHandler.ListMine, authenticate, entrepreneurs)
	listings.GET("/admin/pending", listingHandler.ListPending, authenticate, adminOnly)
	listings.GET("/:id", listingHandler.Get, optionalIdentity)
	listings.PUT("/:id", listingHandler.Update, authenticate, entrepreneurs)
	listings.DELETE("/:id", listingHandler.Delete, authenticate, entrepreneurs)
	listings.PATCH("/:id/status", listingHandler.ChangeStatus, authenticate, adminOnly)

	// --- RBAC and audit ---
	rbacHandler := handler.NewRBACHandler(deps.RBAC)
	rbac := api.Group("/rbac", authenticate, adminOnly)
	rbac.GET("/roles", rbacHandler.Roles)
	rbac.GET("/permissions", rbacHandler.Permissions)
	rbac.GET("/roles/:roleId/permissions", rbacHandler.RolePermissions)

	accessLogHandler := handler.NewAccessLogHandler(deps.AccessLogs)
	api.GET("/access-logs", accessLogHandler.List, authenticate, adminOnly)

	// --- Users ---
	userHandler := handler.NewUserHandler(deps.Users)
	users := api.Group("/users", authenticate)
	users.GET("/me", userHandler.Me)
	users.PUT("/me", userHandler.UpdateMe)
	users.POST("/me/profile-photo", userHandler.UploadMyPhoto)
	users.DELETE("/me/profile-photo", userHandler.DeleteMyPhoto)
	users.GET("", userHandler.List, adminOnly)
	users.GET("/:id", userHandler.Get, adminOnly)
	users.PUT("/:id", userHandler.Update, adminOnly)
	users.DELETE("/:id", userHandler.Deactivate, adminOnly)
	users.POST("/:id/profile-photo", userHandler.UploadPhoto, adminOnly)
	users.DELETE("/:id/profile-photo", userHandler.DeletePhoto, adminOnly)
	users.POST("/:id/roles/:roleId", userHandler.AssignRole, adminOnly)
	users.DELETE("/:id/roles/:roleId", userHandler.RemoveRole, adminOnly)

	// --- Media ---
	mediaHandler := handler.NewMediaHandler(deps.Users)
	e.GET("/media/profile-photos/:accountId/:file", mediaHandler.ProfilePhoto)

	return e
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Namespace: "turismo",
		Subsystem: "http",
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/metrics" || strings.HasPrefix(p, "/health")
		},
		DoNotUseRequestPathFor404: true,
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRoutePath: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error()
			case v.Status >= http.StatusBadRequest:
				ev = log.Warn()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("route", v.RoutePath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("ip", v.RemoteIP).
				Str("user_agent", v.UserAgent).
				Msg("request")
			return nil
		},
	})
}
