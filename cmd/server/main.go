package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/quickclean/quickclean-backend/internal/cache"
	"github.com/quickclean/quickclean-backend/internal/config"
	"github.com/quickclean/quickclean-backend/internal/db"
	"github.com/quickclean/quickclean-backend/internal/goroutine"
	httpHandlers "github.com/quickclean/quickclean-backend/internal/http/handlers"
	httpRouter "github.com/quickclean/quickclean-backend/internal/http/router"
	"github.com/quickclean/quickclean-backend/internal/jobs"
	"github.com/quickclean/quickclean-backend/internal/logger"
	"github.com/quickclean/quickclean-backend/internal/repository"
	"github.com/quickclean/quickclean-backend/internal/service"
	"github.com/quickclean/quickclean-backend/internal/storage"
	"github.com/quickclean/quickclean-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	redisClient, err := db.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("main: ошибка подключения к Redis: %v", err)
	}
	appCache := cache.New(redisClient)

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	scheduleRepo := repository.NewScheduleRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	issueRepo := repository.NewIssueRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	profileService := service.NewProfileService(userRepo)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub, appCache)
	chatService := service.NewChatService(messageRepo, orderRepo, hub, appCache)
	scheduleService := service.NewScheduleService(scheduleRepo, userRepo, notificationService)
	orderService := service.NewOrderService(orderRepo, scheduleService, ledgerRepo, notificationService, issueRepo, cfg.CommissionPercent)
	orderService.SetChat(chatService)
	orderService.SetPusher(hub)
	earningsService := service.NewEarningsService(ledgerRepo, notificationService, cfg.WithdrawalMinAmount)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, notificationService)
	statsService := service.NewStatsService(orderRepo, userRepo, issueRepo, ledgerRepo, appCache, notificationService)

	// Фоновые задачи: напоминания о заказах и обработка выплат.
	jobRunner := jobs.NewRunner(orderRepo, ledgerRepo, notificationService, cfg.PayoutHoldPeriod)
	if err := jobRunner.Start(ctx, cfg.ReminderCronSpec, cfg.SettlementCronSpec); err != nil {
		log.Fatalf("main: не удалось запустить фоновые задачи: %v", err)
	}
	defer jobRunner.Stop()

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(profileService, authService, mediaStorage)
	orderHandler := httpHandlers.NewOrderHandler(orderService, mediaStorage)
	scheduleHandler := httpHandlers.NewScheduleHandler(scheduleService)
	chatHandler := httpHandlers.NewChatHandler(chatService, mediaStorage)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	earningsHandler := httpHandlers.NewEarningsHandler(earningsService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService, mediaStorage)
	adminHandler := httpHandlers.NewAdminHandler(statsService, scheduleService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, redisClient)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, profileHandler, orderHandler, scheduleHandler,
		chatHandler, notificationHandler, earningsHandler, reviewHandler, adminHandler,
		wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
