package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/docgate/docgate/internal/app"
	"github.com/docgate/docgate/internal/audit"
	"github.com/docgate/docgate/internal/auth"
	"github.com/docgate/docgate/internal/authz"
	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/documents"
	"github.com/docgate/docgate/internal/principals"
	"github.com/docgate/docgate/internal/roles"
	"github.com/docgate/docgate/internal/shared"
	"github.com/docgate/docgate/internal/validation"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	recorder := audit.NewEnqueuer(asynqClient)

	dir := directory.NewPostgres(pool)

	identityPipeline := validation.NewPipeline(
		validation.Structural{Dir: dir},
		validation.EmailDomain{Domain: cfg.AcceptedEmailDomain},
	)
	passwordPolicy := cfg.PasswordPolicy()

	docRepo := documents.NewRepository(pool)
	engine := authz.NewEngine(authz.DefaultPolicies(), documents.NewResourceFinder(docRepo))

	sessionManager := shared.NewSessionManager(redisClient, "docgate_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authService := auth.NewService(dir)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)
	authMiddleware := auth.Middleware{Dir: dir, Logger: logger}

	principalsService := principals.NewService(dir, identityPipeline, passwordPolicy)
	principalsHandler := principals.NewHandler(logger, principalsService, recorder)

	rolesService := roles.NewService(dir)
	rolesHandler := roles.NewHandler(logger, rolesService, recorder)

	documentsService := documents.NewService(docRepo, engine)
	documentsHandler := documents.NewHandler(logger, documentsService)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		PrincipalsHandler: principalsHandler,
		RolesHandler:      rolesHandler,
		DocumentsHandler:  documentsHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
