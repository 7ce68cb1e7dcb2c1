// Command api runs the Turismo Capachica HTTP API.
//
// @title                       Turismo Capachica API
// @version                     1.0
// @description                 Accounts, sessions and emprendimiento listings for the Capachica tourism platform.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/capachica/turismo-api/internal/api"
	"github.com/capachica/turismo-api/internal/api/handler"
	"github.com/capachica/turismo-api/internal/api/middleware"
	"github.com/capachica/turismo-api/internal/core/service"
	mongostore "github.com/capachica/turismo-api/internal/infrastructure/db/mongo"
	redisstore "github.com/capachica/turismo-api/internal/infrastructure/db/redis"
	"github.com/capachica/turismo-api/internal/infrastructure/queue"
	"github.com/capachica/turismo-api/internal/infrastructure/scheduler"
	"github.com/capachica/turismo-api/internal/pkg/config"
	"github.com/capachica/turismo-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine: the environment may be set by the platform.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "turismo-api",
		Env:     cfg.Env,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	store := mongostore.NewStore(db)
	if err := store.Bootstrap(ctx); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo ready")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Attempts: cfg.Redis.Attempts,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis ready")

	// --- Background workers ---
	dispatcher := queue.NewAccessLogDispatcher(cfg.Background.AccessLogWorkers, store.AccessLogs, log)
	dispatcher.Start(ctx)

	sweeper := scheduler.NewSweeper(store.Accounts, cfg.Background.SweepInterval, log)
	go sweeper.Run(ctx)

	// --- Services ---
	policy := service.FailOpen
	if cfg.Auth.RevocationFailClosed {
		policy = service.FailClosed
	}
	codec := service.NewTokenCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	ledger := service.NewRevocationLedger(redisstore.NewRevocationStore(rdb), codec, policy, cfg.Auth.RevocationDefaultTTL, log)

	authService, err := service.NewAuthService(
		store.Accounts, store.Persons, store.Roles, codec, ledger, dispatcher,
		service.AuthConfig{
			BcryptCost:    cfg.Auth.BcryptCost,
			ResetTokenTTL: cfg.Auth.PasswordResetTTL,
			FrontendURL:   cfg.ClientURL,
			ExposeTokens:  !cfg.IsProduction(),
		},
		log,
	)
	if err != nil {
		return err
	}
	photos := service.NewPhotoService(store.Photos, cfg.PublicBaseURL, log)

	deps := api.Dependencies{
		Auth:        authService,
		Listings:    service.NewListingService(store.Listings, dispatcher, log),
		Users:       service.NewUserService(store.Accounts, store.Persons, store.Roles, photos, dispatcher, log),
		Catalogs:    service.NewCatalogService(store.Catalog),
		RBAC:        service.NewRBACService(store.Roles),
		AccessLogs:  service.NewAccessLogService(store.AccessLogs),
		Tokens:      codec,
		Revocations: ledger,
		Readiness: map[string]handler.PingFunc{
			"mongodb": handler.MongoPing(db),
			"redis":   handler.RedisPing(rdb),
		},
	}
	if cfg.RateLimit.Enabled {
		switch cfg.RateLimit.Backend {
		case config.RateLimitMemory:
			lim := middleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
			go lim.RunPruner(ctx, time.Minute)
			deps.Limiter = lim
		default:
			deps.Limiter = redisstore.NewRateLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, "")
		}
	}

	e := api.NewRouter(deps, api.Options{
		Production:   cfg.IsProduction(),
		AllowOrigins: []string{cfg.ClientURL},
		Log:          log,
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("access log queue not fully drained")
	}
	log.Info().Msg("server stopped")
	return nil
}
