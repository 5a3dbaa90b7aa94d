package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/storefront-auth-api/api/swagger"
	"github.com/noah-isme/storefront-auth-api/internal/handler"
	"github.com/noah-isme/storefront-auth-api/internal/repository"
	"github.com/noah-isme/storefront-auth-api/internal/service"
	"github.com/noah-isme/storefront-auth-api/pkg/cache"
	"github.com/noah-isme/storefront-auth-api/pkg/config"
	"github.com/noah-isme/storefront-auth-api/pkg/database"
	"github.com/noah-isme/storefront-auth-api/pkg/logger"
)

// @title Storefront Auth API
// @version 1.0.0
// @description Session and token lifecycle for the storefront backend
// @BasePath /api
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to credential store", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to session store", zap.Error(err))
	}
	defer rdb.Close()

	hasher, err := service.NewPasswordHasher(cfg.Password.Hasher, cfg.Password.BcryptCost)
	if err != nil {
		logr.Fatal("failed to init password hasher", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(rdb, cfg.Redis.OpTimeout)
	metrics := service.NewMetricsService()

	tokens := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     cfg.JWT.AccessExpiration,
		RefreshTTL:    cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	})
	sessions := service.NewAuthService(
		service.NewCredentialService(userRepo, hasher, logr),
		sessionRepo,
		tokens,
		validator.New(),
		logr,
		metrics,
	)

	router := handler.NewRouter(handler.RouterDeps{
		Config:   cfg,
		Logger:   logr,
		Sessions: sessions,
		Metrics:  metrics,
		Pingers: map[string]handler.Pinger{
			"postgres": userRepo,
			"redis":    sessionRepo,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
