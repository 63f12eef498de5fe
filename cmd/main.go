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

	"github.com/Dosada05/hunt-reservation/config"
	"github.com/Dosada05/hunt-reservation/db"
	_ "github.com/Dosada05/hunt-reservation/docs"
	"github.com/Dosada05/hunt-reservation/handlers"
	"github.com/Dosada05/hunt-reservation/middleware"
	"github.com/Dosada05/hunt-reservation/notifications"
	"github.com/Dosada05/hunt-reservation/repositories"
	api "github.com/Dosada05/hunt-reservation/routes"
	"github.com/Dosada05/hunt-reservation/services"
	"github.com/Dosada05/hunt-reservation/storage"
	"github.com/Dosada05/hunt-reservation/tibia"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Как часто планировщик снимает активность с истёкших периодов.
const schedulerInterval = time.Minute

// @title Hunt Reservation API
// @version 1.0
// @description API для бронирования слотов охоты: заявки, очки, каталог респаунов.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	handlers.SetLogger(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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

	// Загрузчик картинок респаунов (Cloudflare R2). Необязателен.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
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
		logger.Warn("R2 is not configured, respawn images disabled")
	}

	// Проверка персонажей через TibiaData, с Redis-кэшем при наличии.
	var validator services.CharacterValidator = tibia.NewClient(cfg.TibiaDataBaseURL, logger)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, character lookups will not be cached", slog.Any("error", err))
		} else {
			validator = tibia.NewCachedValidator(validator, rdb, logger)
			logger.Info("redis cache connected", slog.String("addr", cfg.RedisAddr))
		}
	}

	// WebSocket-хаб уведомлений
	wsHub := notifications.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	// Репозитории
	txRunner := repositories.NewSQLTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	characterRepo := repositories.NewPostgresCharacterRepository(dbConn)
	serverRepo := repositories.NewPostgresServerRepository(dbConn)
	difficultyRepo := repositories.NewPostgresDifficultyRepository(dbConn)
	respawnRepo := repositories.NewPostgresRespawnRepository(dbConn)
	slotRepo := repositories.NewPostgresSlotRepository(dbConn)
	periodRepo := repositories.NewPostgresPeriodRepository(dbConn)
	requestRepo := repositories.NewPostgresRequestRepository(dbConn)
	pointRepo := repositories.NewPostgresPointRepository(dbConn)
	claimRepo := repositories.NewPostgresClaimRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, characterRepo, validator, logger)
	serverService := services.NewServerService(serverRepo)
	difficultyService := services.NewDifficultyService(difficultyRepo)
	slotService := services.NewSlotService(slotRepo, serverRepo)
	periodService := services.NewPeriodService(txRunner, periodRepo, serverRepo, logger)
	respawnService := services.NewRespawnService(txRunner, respawnRepo, serverRepo, difficultyRepo, uploader, logger)
	pointService := services.NewPointService(txRunner, userRepo, pointRepo)
	requestService := services.NewRequestService(
		txRunner,
		requestRepo,
		serverRepo,
		respawnRepo,
		slotRepo,
		periodRepo,
		characterRepo,
		pointRepo,
		pointService,
		validator,
		wsHub,
		logger,
	)
	claimService := services.NewClaimService(txRunner, claimRepo, pointRepo, pointService)
	logger.Info("services initialized")

	// Планировщик деактивации истёкших периодов
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("period expiry scheduler started", slog.Duration("interval", schedulerInterval))

		if _, err := periodService.DeactivateExpired(context.Background(), time.Now()); err != nil {
			logger.Error("scheduler: initial run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if _, err := periodService.DeactivateExpired(context.Background(), time.Now()); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}()

	// HTTP-слой
	auth := middleware.NewAuth(cfg.JWTSecretKey)
	limiter := middleware.NewRateLimiter(10, 20)
	limiterDone := make(chan struct{})
	defer close(limiterDone)
	limiter.StartJanitor(limiterDone)

	h := api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, auth),
		User:       handlers.NewUserHandler(userService, pointService),
		Server:     handlers.NewServerHandler(serverService),
		Respawn:    handlers.NewRespawnHandler(respawnService),
		Difficulty: handlers.NewDifficultyHandler(difficultyService),
		Slot:       handlers.NewSlotHandler(slotService),
		Period:     handlers.NewPeriodHandler(periodService),
		Request:    handlers.NewRequestHandler(requestService),
		Claim:      handlers.NewClaimHandler(claimService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, serverService),
	}

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, limiter, h)
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
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
