package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/storefront-auth-api/internal/middleware"
	"github.com/noah-isme/storefront-auth-api/internal/service"
	"github.com/noah-isme/storefront-auth-api/pkg/config"
	"github.com/noah-isme/storefront-auth-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/storefront-auth-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/storefront-auth-api/pkg/middleware/requestid"
)

// SessionManager is the full set of session operations the HTTP layer uses.
type SessionManager interface {
	authService
	sessionRevoker
	middleware.IdentityResolver
}

// RouterDeps collects what NewRouter wires together.
type RouterDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions SessionManager
	Metrics  *service.MetricsService
	Pingers  map[string]Pinger
}

// NewRouter builds the HTTP engine with the ambient middleware chain and all routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	logr := deps.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(deps.Metrics))

	metricsHandler := NewMetricsHandler(deps.Metrics, deps.Pingers, logr)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := NewAuthHandler(deps.Sessions, CookieOptions{
		Domain:     cfg.Cookie.Domain,
		Secure:     cfg.Cookie.Secure,
		AccessTTL:  cfg.JWT.AccessExpiration,
		RefreshTTL: cfg.JWT.RefreshExpiration,
	}, logr)
	adminHandler := NewAdminHandler(deps.Sessions, logr)

	protect := middleware.Protect(deps.Sessions)

	api := r.Group(cfg.APIPrefix)
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh-token", authHandler.Refresh)
	auth.GET("/profile", protect, authHandler.Profile)

	admin := api.Group("/admin", protect, middleware.RequireAdmin())
	admin.DELETE("/users/:id/session", adminHandler.RevokeSession)

	return r
}
