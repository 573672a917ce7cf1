package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/coursehub/coursehub/internal/accounts"
	"github.com/coursehub/coursehub/internal/app"
	"github.com/coursehub/coursehub/internal/auth"
	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/enrollment"
	"github.com/coursehub/coursehub/internal/observability"
	"github.com/coursehub/coursehub/internal/roles"
	"github.com/coursehub/coursehub/internal/shared"
	"github.com/coursehub/coursehub/internal/token"
	"github.com/coursehub/coursehub/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenService := token.NewService([]byte(cfg.JWTSecret), cfg.TokenIssuer)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	limiter := auth.NewRedisAttemptLimiter(redisClient, cfg.LoginMaxAttempts, cfg.LoginLockout)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, tokenService, limiter, auditLogger, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, authService, cfg.TokenTTL, cfg.IsProduction()).WithMetrics(metrics)
	guard := auth.NewMiddleware(authService)

	rolesRepo := roles.NewRepository(dbpool)
	rolesService := roles.NewService(rolesRepo)
	rolesHandler := roles.NewHandler(logger, rolesService, guard)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo, rolesService, auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService, guard)

	coursesRepo := courses.NewRepository(dbpool)
	coursesService := courses.NewService(coursesRepo, auditLogger)
	coursesHandler := courses.NewHandler(logger, coursesService, guard)

	enrollmentRepo := enrollment.NewRepository(dbpool)
	enrollmentService := enrollment.NewService(enrollmentRepo, auditLogger)
	enrollmentHandler := enrollment.NewHandler(logger, enrollmentService, guard).WithMetrics(metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Guard:             guard,
		AuthHandler:       authHandler,
		RolesHandler:      rolesHandler,
		AccountsHandler:   accountsHandler,
		CoursesHandler:    coursesHandler,
		EnrollmentHandler: enrollmentHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
