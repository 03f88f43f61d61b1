package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"jobportal/internal/admin"
	"jobportal/internal/api"
	"jobportal/internal/api/middleware"
	"jobportal/internal/applications"
	"jobportal/internal/auth"
	"jobportal/internal/companies"
	"jobportal/internal/config"
	"jobportal/internal/coverletter"
	"jobportal/internal/database"
	"jobportal/internal/jobs"
	"jobportal/internal/logger"
	"jobportal/internal/storage"
	"jobportal/internal/tasks"
)

func main() {
	cfg := config.MustLoad()
	appLogger := logger.New(cfg.Log)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	appLogger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("db", cfg.Database.Name),
	)

	authService, err := auth.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	var generator coverletter.Generator
	if cfg.AI.Enabled {
		g, err := coverletter.NewOpenAIGenerator(cfg.AI)
		if err != nil {
			log.Fatalf("init cover letter generator: %v", err)
		}
		generator = g
	}

	jobService := jobs.NewService(db, appLogger)
	companyService := companies.NewService(db, appLogger)
	applicationService := applications.NewService(db, storageClient, appLogger)
	adminService := admin.NewService(db, companyService, jobService, tasks.NewEnqueuer(asynqClient), appLogger)
	letterService := coverletter.NewService(generator, jobService, appLogger)

	router := api.NewRouter(cfg, appLogger)
	api.RegisterRoutes(router, api.Handlers{
		Auth: api.NewAuthHandler(db, authService, redisClient,
			cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL, cfg.Auth.CookieDomain),
		Users: api.NewUserHandler(db),
		Resumes: api.NewResumeHandler(db, storageClient, api.NewClamdScanner(cfg.Resume.ClamdAddr),
			cfg.Resume.MaxBytes, cfg.Resume.AllowedMIMETypes),
		Jobs:         api.NewJobHandler(jobService),
		Companies:    api.NewCompanyHandler(companyService),
		Applications: api.NewApplicationHandler(applicationService),
		Admin:        api.NewAdminHandler(adminService),
		AI:           api.NewAIHandler(letterService),
		Authenticate: middleware.AuthMiddleware(authService, auth.NewResolver(db)),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("api shutdown failed", slog.Any("error", err))
	}
	appLogger.Info("api stopped")
}
