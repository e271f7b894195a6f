// Команда jobs выполняет периодические задачи обслуживания: авто-отмену
// неподтверждённых заказов, разморозку выдержанных начислений и доработку
// осиротевших провайдерских событий. Запускается планировщиком (cron).
package main

import (
	"context"
	"log"
	"time"

	"github.com/hogarya/hogarya-backend/internal/config"
	"github.com/hogarya/hogarya-backend/internal/db"
	"github.com/hogarya/hogarya-backend/internal/logger"
	"github.com/hogarya/hogarya-backend/internal/notify"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/repository"
	"github.com/hogarya/hogarya-backend/internal/service"
)

const (
	jobTimeout  = 2 * time.Minute
	batchLimit  = 100
	orphanLimit = 50
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("jobs: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init("info")

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("jobs: ошибка подключения к базе: %v", err)
	}
	defer dbConn.Close()

	orderRepo := repository.NewOrderRepository(dbConn)
	bookingRepo := repository.NewBookingRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	eventRepo := repository.NewPaymentEventRepository(dbConn)
	earningRepo := repository.NewEarningRepository(dbConn)

	mp := provider.NewMercadoPago(cfg.MPBaseURL, cfg.MPAccessToken, cfg.MPWebhookSecret, cfg.ProviderTimeout)
	providers := provider.NewRegistry(mp)

	earningService := service.NewEarningService(earningRepo, cfg.FeeBpsForCategory, cfg.EarningHoldPeriod, logger.L())
	reconciliationService := service.NewReconciliationService(eventRepo, paymentRepo, orderRepo, bookingRepo, earningService, logger.L())
	orderService := service.NewOrderService(orderRepo, paymentRepo, earningService, providers,
		notify.NewLogNotifier(logger.L()), cfg.DefaultCurrency, logger.L())

	canceled, err := orderService.AutoCancelStale(ctx, cfg.OrderConfirmTTL, batchLimit)
	if err != nil {
		log.Fatalf("jobs: авто-отмена заказов не удалась: %v", err)
	}

	released, err := earningService.ReleaseAvailable(ctx)
	if err != nil {
		log.Fatalf("jobs: разморозка начислений не удалась: %v", err)
	}

	replayed, err := reconciliationService.ProcessOrphans(ctx, orphanLimit)
	if err != nil {
		log.Fatalf("jobs: доработка осиротевших событий не удалась: %v", err)
	}

	log.Printf("jobs: завершено: canceled=%d released=%d replayed=%d", canceled, released, replayed)
}
