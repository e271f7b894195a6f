package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hogarya/hogarya-backend/internal/goroutine"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/service"
)

// WebhookHandler принимает провайдерские события.
//
// Контракт с провайдером: 400 только на неразборчивое тело, всё остальное —
// 200. Подтверждение уходит до сверки: обработка запускается отдельной
// горутиной со своим контекстом, чтобы таймаут провайдера не оборвал
// транзакцию на середине.
type WebhookHandler struct {
	providers      *provider.Registry
	reconciliation *service.ReconciliationService
	processTimeout time.Duration
	log            *logrus.Logger
}

func NewWebhookHandler(providers *provider.Registry, reconciliation *service.ReconciliationService, processTimeout time.Duration, log *logrus.Logger) *WebhookHandler {
	if processTimeout <= 0 {
		processTimeout = 30 * time.Second
	}
	return &WebhookHandler{
		providers:      providers,
		reconciliation: reconciliation,
		processTimeout: processTimeout,
		log:            log,
	}
}

// Receive обрабатывает POST /webhooks/:provider.
func (h *WebhookHandler) Receive(c *gin.Context) {
	adapter, ok := h.providers.Get(c.Param("provider"))
	if !ok {
		// Неизвестный провайдер — не повод для шторма ретраев.
		c.Status(http.StatusOK)
		return
	}

	ev, err := adapter.ParseWebhook(c.Request)
	if err != nil {
		if errors.Is(err, provider.ErrUnparseable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "тело запроса не разобрано"})
			return
		}
		// Разобрали, но событие не представляет интереса (например,
		// неизвестный тип) либо не прошла подпись — подтверждаем и забываем.
		h.log.WithError(err).WithField("provider", adapter.Name()).Warn("webhook отклонён после разбора")
		c.Status(http.StatusOK)
		return
	}

	goroutine.SafeGoWithContext(context.Background(), func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, h.processTimeout)
		defer cancel()

		if err := h.reconciliation.HandleProviderWebhook(ctx, ev); err != nil {
			h.log.WithError(err).WithFields(logrus.Fields{
				"provider":  ev.Provider,
				"reference": ev.Reference,
				"type":      ev.EventType,
			}).Error("сверка провайдерского события не удалась")
		}
	})

	c.Status(http.StatusOK)
}
