package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dosada05/hackathon-portal/cache"
	"github.com/Dosada05/hackathon-portal/config"
	"github.com/Dosada05/hackathon-portal/db"
	"github.com/Dosada05/hackathon-portal/feed"
	"github.com/Dosada05/hackathon-portal/handlers"
	"github.com/Dosada05/hackathon-portal/logging"
	"github.com/Dosada05/hackathon-portal/metrics"
	"github.com/Dosada05/hackathon-portal/repositories"
	api "github.com/Dosada05/hackathon-portal/routes"
	"github.com/Dosada05/hackathon-portal/services"
	"github.com/Dosada05/hackathon-portal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Логгер до загрузки конфигурации пишет только в stdout
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logFiles, err := logging.Open(cfg.LogDir)
	if err != nil {
		logger.Error("failed to open log files", slog.Any("error", err))
		os.Exit(1)
	}
	defer logFiles.Close()
	logger = logFiles.NewLogger(os.Stdout, slog.LevelInfo)
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageBackend),
		slog.String("cache", cfg.CacheBackend),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize uploader", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	hub := feed.NewHub(logger)
	go hub.Run(ctx)
	logger.Info("live feed hub started")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	var mailer services.Mailer
	if cfg.SMTPEnabled() {
		emailService, err := services.NewEmailService(cfg)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = emailService
		logger.Info("submission confirmation emails enabled", slog.String("smtp_host", cfg.SMTPHost))
	}

	// Инициализация сервисов
	locks := services.NewCollectionLocks()
	eventService := services.NewEventService(store, uploader, locks, hub, logger)
	validator, err := services.NewSubmissionValidator(cfg.RequiredFields, cfg.RequireRegistration, cfg.Location)
	if err != nil {
		logger.Error("invalid SUBMISSION_REQUIRED_FIELDS", slog.Any("error", err))
		os.Exit(1)
	}
	submissionService := services.NewSubmissionService(store, eventService, validator, locks, hub, mailer, logger)
	participantService := services.NewParticipantService(store, eventService, locks, logger)
	teamService := services.NewTeamService(store, eventService, locks, logger)
	winnerService := services.NewWinnerService(store, eventService, locks, hub)
	authService := services.NewAuthService(store, cfg.JWTSecretKey, cfg.SessionTTL, logger)
	dashboardService := services.NewDashboardService(store, eventService)

	if err := eventService.Bootstrap(ctx, cfg.DefaultEventName); err != nil {
		logger.Error("failed to create default hackathon", slog.String("name", cfg.DefaultEventName), slog.Any("error", err))
		os.Exit(1)
	}
	if err := authService.Bootstrap(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminPasswordHash); err != nil {
		logger.Error("failed to bootstrap admin credential", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	secureCookie := strings.HasPrefix(cfg.PublicURL, "https://")
	h := api.Handlers{
		Page:        handlers.NewPageHandler(eventService, winnerService),
		Hackathon:   handlers.NewHackathonHandler(eventService),
		Submission:  handlers.NewSubmissionHandler(submissionService, appMetrics),
		Participant: handlers.NewParticipantHandler(participantService),
		Team:        handlers.NewTeamHandler(teamService),
		Winner:      handlers.NewWinnerHandler(winnerService),
		Admin:       handlers.NewAdminHandler(authService, dashboardService, eventService, appMetrics, secureCookie),
		Log:         handlers.NewLogHandler(logFiles),
		WebSocket:   handlers.NewWebSocketHandler(hub, eventService, cfg.CORSAllowedOrigins),
	}

	opts := api.Options{
		Logger:          logger,
		Metrics:         appMetrics,
		TokenParser:     authService,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}
	if !cfg.R2Enabled() {
		opts.UploadDir = cfg.UploadDir
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, opts, h)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		// Закрываем websocket-клиентов до Shutdown: он не ждёт hijacked соединения.
		stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

// openStore builds the configured persistence backend, optionally wrapped in
// a read-through cache. The returned func releases everything it opened.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.Store, func(), error) {
	var (
		store repositories.Store
		err   error
	)
	closers := []func() error{}

	switch cfg.StorageBackend {
	case config.BackendFiles:
		store, err = repositories.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file store opened", slog.String("dir", cfg.DataDir))
	case config.BackendSQLite, config.BackendPostgres:
		driver := db.DriverSQLite
		if cfg.StorageBackend == config.BackendPostgres {
			driver = db.DriverPostgres
		}
		conn, err := db.Connect(driver, cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, nil, err
		}
		if err := db.CreateSchema(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, err
		}
		store = repositories.NewSQLStore(conn, driver)
		logger.Info("database connection established", slog.String("driver", driver))
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	closers = append(closers, store.Close)

	switch cfg.CacheBackend {
	case config.CacheMemory:
		store = repositories.NewCachedStore(store, cache.NewMemory(), cfg.CacheTTL, logger)
	case config.CacheRedis:
		rc := cache.NewRedis(cfg.RedisAddr, "hackathon:")
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			rc.Close()
			for _, c := range closers {
				c()
			}
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, rc.Close)
		store = repositories.NewCachedStore(store, rc, cfg.CacheTTL, logger)
		logger.Info("redis cache connected", slog.String("addr", cfg.RedisAddr))
	}

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("failed to close store", slog.Any("error", err))
			}
		}
	}
	return store, closeAll, nil
}

func newUploader(ctx context.Context, cfg *config.Config) (storage.FileUploader, error) {
	if cfg.R2Enabled() {
		return storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
	}
	return storage.NewLocalUploader(cfg.UploadDir, cfg.PublicURL+"/uploads")
}
