package provider

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec-test"

func signedWebhookRequest(t *testing.T, body []byte, dataID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", bytes.NewReader(body))
	req.Header.Set("x-request-id", "req-1")

	ts := "1700000000"
	manifest := fmt.Sprintf("id:%s;request-id:req-1;ts:%s;", dataID, ts)
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(manifest))
	req.Header.Set("x-signature", fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func TestMercadoPago_ParseWebhook_Captured(t *testing.T) {
	mp := NewMercadoPago("https://api.mercadopago.com", "token", testSecret, 0)

	body := []byte(`{"id":1,"type":"payment","action":"payment.updated","data":{"id":"mp-123","status":"approved","transaction_amount":100.00,"currency_id":"UYU"}}`)
	ev, err := mp.ParseWebhook(signedWebhookRequest(t, body, "mp-123"))
	require.NoError(t, err)

	assert.Equal(t, ProviderMercadoPago, ev.Provider)
	assert.Equal(t, "mp-123", ev.Reference)
	assert.Equal(t, EventCaptured, ev.Kind)
	assert.Equal(t, int64(10000), ev.Amount, "сумма нормализуется в минорные единицы")
	assert.Equal(t, "UYU", ev.Currency)
	assert.Equal(t, body, ev.Payload)
}

func TestMercadoPago_ParseWebhook_AmountRounding(t *testing.T) {
	mp := NewMercadoPago("https://api.mercadopago.com", "token", "", 0)

	// 105.85*100 во float — 10584.999…; частичный возврат приходит
	// отрицательной суммой.
	cases := map[string]int64{
		"105.85": 10585,
		"19.99":  1999,
		"-10.05": -1005,
	}
	for amount, minor := range cases {
		body := []byte(fmt.Sprintf(`{"action":"payment.updated","data":{"id":"mp-1","status":"approved","transaction_amount":%s,"currency_id":"UYU"}}`, amount))
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		ev, err := mp.ParseWebhook(req)
		require.NoError(t, err, "amount=%s", amount)
		assert.Equal(t, minor, ev.Amount, "amount=%s", amount)
	}
}

func TestMercadoPago_ParseWebhook_StatusMapping(t *testing.T) {
	mp := NewMercadoPago("https://api.mercadopago.com", "token", "", 0)

	cases := map[string]EventKind{
		"pending":    EventRequiresAction,
		"in_process": EventRequiresAction,
		"authorized": EventAuthorized,
		"approved":   EventCaptured,
		"rejected":   EventFailed,
		"refunded":   EventRefunded,
		"cancelled":  EventCancelled,
	}
	for status, kind := range cases {
		body := []byte(fmt.Sprintf(`{"action":"payment.updated","data":{"id":"mp-1","status":"%s","transaction_amount":1,"currency_id":"UYU"}}`, status))
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		ev, err := mp.ParseWebhook(req)
		require.NoError(t, err, "status=%s", status)
		assert.Equal(t, kind, ev.Kind, "status=%s", status)
	}
}

func TestMercadoPago_ParseWebhook_BadSignature(t *testing.T) {
	mp := NewMercadoPago("https://api.mercadopago.com", "token", testSecret, 0)

	body := []byte(`{"action":"payment.updated","data":{"id":"mp-123","status":"approved","transaction_amount":1,"currency_id":"UYU"}}`)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.Header.Set("x-signature", "ts=1,v1=deadbeef")

	_, err := mp.ParseWebhook(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestMercadoPago_ParseWebhook_Garbage(t *testing.T) {
	mp := NewMercadoPago("https://api.mercadopago.com", "token", "", 0)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not json at all")))
	_, err := mp.ParseWebhook(req)
	assert.ErrorIs(t, err, ErrUnparseable)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"action":"payment.updated","data":{"id":"x","status":"weird"}}`)))
	_, err = mp.ParseWebhook(req)
	assert.ErrorIs(t, err, ErrUnparseable)
}

func TestRegistry_Get(t *testing.T) {
	mp := NewMercadoPago("https://api.mercadopago.com", "token", "", 0)
	reg := NewRegistry(mp)

	got, ok := reg.Get(ProviderMercadoPago)
	require.True(t, ok)
	assert.Equal(t, mp, got)

	_, ok = reg.Get("stripe")
	assert.False(t, ok)
}
