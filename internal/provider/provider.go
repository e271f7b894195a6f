// Package provider абстрагирует платёжного провайдера за единым
// интерфейсом. Сервис сверки видит только нормализованное
// ParsedProviderEvent и никогда не зависит от формы webhook'а конкретного
// провайдера.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/hogarya/hogarya-backend/internal/domain/valueobject"
)

// ErrUnparseable — тело webhook'а не удалось разобрать вовсе.
// Единственный случай, когда провайдеру отвечают 400.
var ErrUnparseable = errors.New("webhook payload is not parseable")

// ErrRejected — провайдер явно отклонил операцию. В отличие от
// недоступности, ретраить бессмысленно.
var ErrRejected = errors.New("provider rejected the operation")

// EventKind — нормализованный тип провайдерского события.
type EventKind string

const (
	EventRequiresAction EventKind = "requires_action"
	EventAuthorized     EventKind = "authorized"
	EventCaptured       EventKind = "captured"
	EventFailed         EventKind = "failed"
	EventRefunded       EventKind = "refunded"
	EventCancelled      EventKind = "cancelled"
)

// ParsedProviderEvent — webhook, приведённый к единому виду.
type ParsedProviderEvent struct {
	Provider  string
	Reference string
	EventType string
	Kind      EventKind
	Amount    int64
	Currency  string
	// Payload — сырое тело запроса, участвует в отпечатке идемпотентности.
	Payload []byte
}

// Handle — результат создания платёжного намерения у провайдера.
type Handle struct {
	Reference   string
	CheckoutURL string
}

// Adapter — единый контракт для всех провайдеров. Все сетевые вызовы
// обязаны иметь ограниченный таймаут; таймаут трактуется как неизвестный
// исход, источником истины остаётся webhook.
type Adapter interface {
	Name() string
	ParseWebhook(r *http.Request) (*ParsedProviderEvent, error)
	CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, amount valueobject.Money) (*Handle, error)
	Capture(ctx context.Context, reference string) error
	Refund(ctx context.Context, reference string) error
	SendPayout(ctx context.Context, payoutID uuid.UUID, destination string, amount valueobject.Money) (string, error)
}

// Registry выбирает адаптер по имени провайдера из пути webhook'а.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}
