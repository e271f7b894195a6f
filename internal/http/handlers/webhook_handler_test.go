package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/hogarya/hogarya-backend/internal/domain/valueobject"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
	"github.com/hogarya/hogarya-backend/internal/service"
)

type stubAdapter struct {
	parsed   *provider.ParsedProviderEvent
	parseErr error
}

func (a *stubAdapter) Name() string { return "mercadopago" }

func (a *stubAdapter) ParseWebhook(*http.Request) (*provider.ParsedProviderEvent, error) {
	return a.parsed, a.parseErr
}

func (a *stubAdapter) CreatePaymentIntent(context.Context, uuid.UUID, valueobject.Money) (*provider.Handle, error) {
	return nil, nil
}

func (a *stubAdapter) Capture(context.Context, string) error  { return nil }
func (a *stubAdapter) Refund(context.Context, string) error   { return nil }
func (a *stubAdapter) SendPayout(context.Context, uuid.UUID, string, valueobject.Money) (string, error) {
	return "", nil
}

// dupEventRepo поглощает событие как дубликат: обработка заканчивается
// сразу после журнала, хранилища не нужны.
type dupEventRepo struct {
	mu       sync.Mutex
	inserted int
}

func (r *dupEventRepo) Insert(context.Context, *models.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted++
	return common.ErrAlreadyExists
}

func (r *dupEventRepo) MarkProcessed(context.Context, uuid.UUID) error { return nil }
func (r *dupEventRepo) MarkOrphaned(context.Context, uuid.UUID) error  { return nil }
func (r *dupEventRepo) ListOrphaned(context.Context, int) ([]models.PaymentEvent, error) {
	return nil, nil
}

func (r *dupEventRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserted
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newWebhookRouter(adapter provider.Adapter, events service.PaymentEventRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	recon := service.NewReconciliationService(events, nil, nil, nil, nil, quietLogger())
	handler := NewWebhookHandler(provider.NewRegistry(adapter), recon, time.Second, quietLogger())

	r := gin.New()
	r.POST("/webhooks/:provider", handler.Receive)
	return r
}

func TestWebhookHandler_UnparseableBody_400(t *testing.T) {
	r := newWebhookRouter(&stubAdapter{parseErr: provider.ErrUnparseable}, &dupEventRepo{})

	req, _ := http.NewRequest("POST", "/webhooks/mercadopago", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookHandler_RejectedAfterParse_200(t *testing.T) {
	r := newWebhookRouter(&stubAdapter{parseErr: provider.ErrRejected}, &dupEventRepo{})

	req, _ := http.NewRequest("POST", "/webhooks/mercadopago", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookHandler_UnknownProvider_200(t *testing.T) {
	r := newWebhookRouter(&stubAdapter{}, &dupEventRepo{})

	req, _ := http.NewRequest("POST", "/webhooks/paypal", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookHandler_ValidEvent_AckThenProcess(t *testing.T) {
	events := &dupEventRepo{}
	parsed := &provider.ParsedProviderEvent{
		Provider:  "mercadopago",
		Reference: "mp-1",
		EventType: "payment.updated",
		Kind:      provider.EventCaptured,
		Amount:    10000,
		Currency:  "UYU",
		Payload:   []byte(`{}`),
	}
	r := newWebhookRouter(&stubAdapter{parsed: parsed}, events)

	req, _ := http.NewRequest("POST", "/webhooks/mercadopago", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	// обработка асинхронная, ждём записи в журнал
	assert.Eventually(t, func() bool { return events.count() == 1 }, time.Second, 10*time.Millisecond)
}
