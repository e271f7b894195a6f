package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hogarya/hogarya-backend/internal/config"
	"github.com/hogarya/hogarya-backend/internal/db"
	httpHandlers "github.com/hogarya/hogarya-backend/internal/http/handlers"
	httpRouter "github.com/hogarya/hogarya-backend/internal/http/router"
	"github.com/hogarya/hogarya-backend/internal/logger"
	"github.com/hogarya/hogarya-backend/internal/notify"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/repository"
	"github.com/hogarya/hogarya-backend/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
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

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Платёжные провайдеры.
	mp := provider.NewMercadoPago(cfg.MPBaseURL, cfg.MPAccessToken, cfg.MPWebhookSecret, cfg.ProviderTimeout)
	providers := provider.NewRegistry(mp)

	// Шина уведомлений: без AMQP события уходят в лог.
	var notifier notify.Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("main: ошибка подключения к AMQP: %v", err)
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	} else {
		notifier = notify.NewLogNotifier(logger.L())
	}

	// Репозитории.
	orderRepo := repository.NewOrderRepository(dbConn)
	bookingRepo := repository.NewBookingRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	eventRepo := repository.NewPaymentEventRepository(dbConn)
	earningRepo := repository.NewEarningRepository(dbConn)
	payoutRepo := repository.NewPayoutRepository(dbConn)
	profileRepo := repository.NewProProfileRepository(dbConn)

	// Сервисы.
	earningService := service.NewEarningService(earningRepo, cfg.FeeBpsForCategory, cfg.EarningHoldPeriod, logger.L())
	reconciliationService := service.NewReconciliationService(eventRepo, paymentRepo, orderRepo, bookingRepo, earningService, logger.L())
	orderService := service.NewOrderService(orderRepo, paymentRepo, earningService, providers, notifier, cfg.DefaultCurrency, logger.L())
	bookingService := service.NewBookingService(bookingRepo, paymentRepo, providers, notifier, cfg.DefaultCurrency, logger.L())
	payoutService := service.NewPayoutService(payoutRepo, profileRepo, earningRepo, providers, notifier,
		cfg.DefaultCurrency, cfg.PayoutSendAttempts, cfg.PayoutSendBackoff, logger.L())
	profileService := service.NewProProfileService(profileRepo, logger.L())

	// HTTP хэндлеры.
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	webhookHandler := httpHandlers.NewWebhookHandler(providers, reconciliationService, cfg.ProviderTimeout, logger.L())
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	bookingHandler := httpHandlers.NewBookingHandler(bookingService)
	payoutHandler := httpHandlers.NewPayoutHandler(payoutService)
	proProfileHandler := httpHandlers.NewProProfileHandler(profileService, earningService)

	engine := httpRouter.SetupRouter(cfg, healthHandler, webhookHandler, orderHandler,
		bookingHandler, payoutHandler, proProfileHandler, tokenManager, profileRepo)

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
