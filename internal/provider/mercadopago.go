package provider

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/domain/valueobject"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
)

const ProviderMercadoPago = "mercadopago"

// MercadoPago реализует Adapter поверх REST API Mercado Pago.
type MercadoPago struct {
	baseURL       string
	accessToken   string
	webhookSecret string
	client        *http.Client
}

func NewMercadoPago(baseURL, accessToken, webhookSecret string, timeout time.Duration) *MercadoPago {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPago{
		baseURL:       strings.TrimRight(baseURL, "/"),
		accessToken:   accessToken,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: timeout},
	}
}

func (mp *MercadoPago) Name() string { return ProviderMercadoPago }

// mpWebhookBody — форма webhook уведомления Mercado Pago.
type mpWebhookBody struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID                string  `json:"id"`
		Status            string  `json:"status"`
		TransactionAmount float64 `json:"transaction_amount"`
		CurrencyID        string  `json:"currency_id"`
	} `json:"data"`
}

// ParseWebhook проверяет подпись x-signature и нормализует уведомление.
// Подпись: HMAC-SHA256 от манифеста "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (mp *MercadoPago) ParseWebhook(r *http.Request) (*ParsedProviderEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		return nil, ErrUnparseable
	}

	var wb mpWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, ErrUnparseable
	}
	if wb.Data.ID == "" || wb.Action == "" {
		return nil, ErrUnparseable
	}

	if mp.webhookSecret != "" {
		if err := mp.verifySignature(r, wb.Data.ID); err != nil {
			return nil, err
		}
	}

	kind, ok := mpStatusToKind(wb.Data.Status)
	if !ok {
		return nil, fmt.Errorf("mercadopago: неизвестный статус платежа %q: %w", wb.Data.Status, ErrUnparseable)
	}

	// Сумма приходит в основных единицах, внутрь ядра — только минорные.
	amountMinor := int64(math.Round(wb.Data.TransactionAmount * 100))

	return &ParsedProviderEvent{
		Provider:  ProviderMercadoPago,
		Reference: wb.Data.ID,
		EventType: wb.Action,
		Kind:      kind,
		Amount:    amountMinor,
		Currency:  wb.Data.CurrencyID,
		Payload:   body,
	}, nil
}

// verifySignature разбирает заголовок x-signature вида "ts=...,v1=...".
func (mp *MercadoPago) verifySignature(r *http.Request, dataID string) error {
	sig := r.Header.Get("x-signature")
	if sig == "" {
		return fmt.Errorf("mercadopago: отсутствует x-signature: %w", ErrUnparseable)
	}

	var ts, v1 string
	for _, part := range strings.Split(sig, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("mercadopago: неполная x-signature: %w", ErrUnparseable)
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, r.Header.Get("x-request-id"), ts)
	mac := hmac.New(sha256.New, []byte(mp.webhookSecret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return fmt.Errorf("mercadopago: подпись не совпала: %w", ErrUnparseable)
	}
	return nil
}

func mpStatusToKind(status string) (EventKind, bool) {
	switch status {
	case "pending", "in_process":
		return EventRequiresAction, true
	case "authorized":
		return EventAuthorized, true
	case "approved":
		return EventCaptured, true
	case "rejected":
		return EventFailed, true
	case "refunded", "charged_back":
		return EventRefunded, true
	case "cancelled":
		return EventCancelled, true
	}
	return "", false
}

// CreatePaymentIntent создаёт checkout-преференцию. Повторный вызов с тем
// же заказом идемпотентен на стороне провайдера за счёт X-Idempotency-Key.
func (mp *MercadoPago) CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, amount valueobject.Money) (*Handle, error) {
	payload := map[string]interface{}{
		"external_reference": orderID.String(),
		"items": []map[string]interface{}{
			{
				"title":       "Hogarya order " + orderID.String(),
				"quantity":    1,
				"unit_price":  amount.Major(),
				"currency_id": amount.Currency,
			},
		},
	}

	var resp struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := mp.do(ctx, http.MethodPost, "/checkout/preferences", orderID.String(), payload, &resp); err != nil {
		return nil, err
	}
	return &Handle{Reference: resp.ID, CheckoutURL: resp.InitPoint}, nil
}

// Capture собирает ранее авторизованные средства.
func (mp *MercadoPago) Capture(ctx context.Context, reference string) error {
	payload := map[string]interface{}{"capture": true}
	return mp.do(ctx, http.MethodPut, "/v1/payments/"+reference, "", payload, nil)
}

// Refund возвращает захваченные средства клиенту.
func (mp *MercadoPago) Refund(ctx context.Context, reference string) error {
	return mp.do(ctx, http.MethodPost, "/v1/payments/"+reference+"/refunds", "", map[string]interface{}{}, nil)
}

// SendPayout отправляет средства на реквизиты исполнителя.
func (mp *MercadoPago) SendPayout(ctx context.Context, payoutID uuid.UUID, destination string, amount valueobject.Money) (string, error) {
	payload := map[string]interface{}{
		"external_reference": payoutID.String(),
		"destination":        destination,
		"amount":             amount.Major(),
		"currency_id":        amount.Currency,
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := mp.do(ctx, http.MethodPost, "/v1/payouts", payoutID.String(), payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// do выполняет запрос к API провайдера. Сетевые сбои и таймауты
// оборачиваются в PROVIDER_UNAVAILABLE: вызывающий не вправе считать, что
// операция не произошла. Ответы 4xx означают явный отказ.
func (mp *MercadoPago) do(ctx context.Context, method, path, idemKey string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mercadopago: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, mp.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mercadopago: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mp.accessToken)
	if idemKey != "" {
		req.Header.Set("X-Idempotency-Key", idemKey)
	}

	resp, err := mp.client.Do(req)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeProviderUnavailable, "провайдер недоступен, исход операции неизвестен")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("mercadopago: decode response: %w", err)
			}
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("mercadopago: %s %s: status %d: %s: %w", method, path, resp.StatusCode, string(respBody), ErrRejected)
	default:
		return apperror.Wrap(
			fmt.Errorf("mercadopago: %s %s: status %d", method, path, resp.StatusCode),
			apperror.ErrCodeProviderUnavailable, "провайдер вернул ошибку сервера")
	}
}
