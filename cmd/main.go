package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/caduhr/bolao-system/cache"
	"github.com/caduhr/bolao-system/config"
	"github.com/caduhr/bolao-system/db"
	"github.com/caduhr/bolao-system/events"
	"github.com/caduhr/bolao-system/handlers"
	"github.com/caduhr/bolao-system/live"
	"github.com/caduhr/bolao-system/metrics"
	"github.com/caduhr/bolao-system/middleware"
	"github.com/caduhr/bolao-system/repositories"
	api "github.com/caduhr/bolao-system/routes"
	"github.com/caduhr/bolao-system/services"
	"github.com/caduhr/bolao-system/storage"
)

const schedulerInterval = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		// The service works without the cache, just slower.
		logger.Warn("redis unavailable, leaderboard caching disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info("redis connection established")
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close kafka writers", slog.Any("error", err))
		}
	}()
	logger.Info("kafka publisher initialized", slog.String("brokers", cfg.KafkaBrokers))

	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewR2Uploader(storage.R2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Warn("R2 credentials not configured, file uploads disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	sportRepo := repositories.NewPostgresSportRepository(dbConn)
	competitionRepo := repositories.NewPostgresCompetitionRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	poolRepo := repositories.NewPostgresPoolRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	betRepo := repositories.NewPostgresBetRepository(dbConn)
	participationRepo := repositories.NewPostgresParticipationRepository(dbConn)
	invitationRepo := repositories.NewPostgresInvitationRepository(dbConn)
	logger.Info("repositories initialized")

	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader)
	competitionService := services.NewCompetitionService(competitionRepo, sportRepo, uploader)
	poolService := services.NewPoolService(dbConn, poolRepo, participationRepo, competitionRepo, logger)
	matchService := services.NewMatchService(dbConn, matchRepo, teamRepo, poolRepo)
	betService := services.NewBetService(betRepo, matchRepo, poolRepo, participationRepo, userRepo)
	leaderboardService := services.NewLeaderboardService(poolRepo, participationRepo, redisClient, logger)
	resultService := services.NewResultService(
		dbConn,
		matchRepo,
		betRepo,
		participationRepo,
		poolRepo,
		leaderboardService,
		publisher,
		wsHub,
		logger,
	)
	invitationService := services.NewInvitationService(
		invitationRepo,
		poolRepo,
		poolService,
		emailService,
		publisher,
		logger,
	)
	logger.Info("services initialized")

	// Background pass: lock pools past their betting deadline, finish pools
	// whose matches are all done, drop expired invitations.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("pool status scheduler started", slog.Duration("interval", schedulerInterval))

		run := func() {
			ctx, cancel := context.WithTimeout(context.Background(), schedulerInterval)
			defer cancel()
			if err := poolService.AutoUpdateStatuses(ctx); err != nil {
				logger.Error("scheduler: pool status update failed", slog.Any("error", err))
			}
			if err := invitationService.CleanupExpired(ctx); err != nil {
				logger.Error("scheduler: invitation cleanup failed", slog.Any("error", err))
			}
		}

		run()
		for range ticker.C {
			run()
		}
	}()

	metricsServer := metrics.StartServer(cfg.MetricsPort, func(ctx context.Context) error {
		return dbConn.PingContext(ctx)
	})
	logger.Info("metrics server started", slog.Int("port", cfg.MetricsPort))

	authenticator := middleware.NewAuthenticator(cfg.JWTSecretKey)
	authHandler := handlers.NewAuthHandler(authService, emailService, cfg.JWTSecretKey)
	userHandler := handlers.NewUserHandler(userService)
	poolHandler := handlers.NewPoolHandler(poolService)
	matchHandler := handlers.NewMatchHandler(matchService, resultService)
	betHandler := handlers.NewBetHandler(betService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	competitionHandler := handlers.NewCompetitionHandler(competitionService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, poolService)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authenticator,
		authHandler,
		userHandler,
		poolHandler,
		matchHandler,
		betHandler,
		leaderboardHandler,
		invitationHandler,
		competitionHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
