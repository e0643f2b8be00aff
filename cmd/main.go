package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"interactive-maps-server/config"
	_ "interactive-maps-server/docs"
	"interactive-maps-server/internal/handler"
	"interactive-maps-server/internal/ports"
	"interactive-maps-server/internal/repository"
	"interactive-maps-server/internal/security"
	"interactive-maps-server/internal/service"
	"interactive-maps-server/internal/util"
)

// @title Interactive maps server
// @version 1.0
// @description Access control for the interactive maps: login by access code, session tokens in cookies

// @host localhost:20090

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	bootstrap := zap.Must(zap.NewProduction())

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		bootstrap.Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := util.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		bootstrap.Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := setupAccessCodeStore(ctx, &cfg.DatabaseConfig)
	if err != nil {
		logger.Fatal("failed to set up access code store", zap.Error(err))
	}
	defer closeStore()

	var bearerCache ports.BearerTokenCache
	if cfg.RedisConfig.Addr != "" {
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed to close Redis", zap.Error(err))
			}
		}()
		bearerCache = repository.NewTokenCacheRepository(redisClient, "")
	} else {
		logger.Info("Redis address not set, bearer token cache disabled")
	}

	jwtService := security.NewJWTService(&cfg.JWT)
	identityService := service.NewIdentityService(&cfg.Identity, bearerCache, logger.Named("identity"))
	accessCodeService := service.NewAccessCodeService(store, logger.Named("access_code"))
	syncService := service.NewAccessCodeSyncService(accessCodeService, identityService, &cfg.Sync, logger.Named("sync"))
	authService := service.NewAuthenticationService(jwtService, accessCodeService, identityService, syncService, logger.Named("auth"))

	authHandler := handler.NewAuthenticationHandler(authService, accessCodeService, syncService, cfg.Cookie, logger.Named("http"))

	srv, router := config.SetupServer(cfg.ServerAddr)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(handler.RequestLogger(logger.Named("http")))
	router.Use(middleware.Recoverer)

	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Handle("/metrics", promhttp.Handler())

	setupAuthRoutes(router, authHandler, jwtService, logger)

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		if err := syncService.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("access code sync scheduler exited", zap.Error(err))
		}
	}()

	runServer(ctx, srv, logger)
	stop()
	<-syncDone
}

func setupAuthRoutes(r chi.Router, h *handler.AuthenticationHandler, verifier security.TokenVerifier, logger *zap.Logger) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Get("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
		})
		r.Group(func(r chi.Router) {
			r.Use(security.AuthMiddleware(verifier, logger.Named("auth")))
			r.Get("/me", h.Me)
			r.Get("/code-status", h.CodeStatus)
		})
	})
}

// setupAccessCodeStore : postgres with migrations applied, or the in-memory store
func setupAccessCodeStore(ctx context.Context, cfg *config.DatabaseConfig) (ports.AccessCodeStore, func(), error) {
	if cfg.Driver == "memory" {
		zap.L().Warn("using in-memory access code store, history is lost on restart")
		return repository.NewMemoryAccessCodeRepository(), func() {}, nil
	}

	db, err := config.SetupDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err := db.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			zap.L().Warn("failed to close database", zap.Error(err))
		}
	}
	return repository.NewAccessCodeRepository(db), closeDB, nil
}

func runServer(ctx context.Context, server *http.Server, logger *zap.Logger) {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server started", zap.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
