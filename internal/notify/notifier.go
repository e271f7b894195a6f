// Package notify — граница с внешней системой доставки уведомлений.
// Ядро только публикует события жизненного цикла; доставку до клиента
// (push, email) делает внешний сервис-потребитель.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Ключи маршрутизации событий.
const (
	RouteOrderStatus   = "order.status"
	RouteBookingStatus = "booking.status"
	RoutePayoutSent    = "payout.sent"
	RoutePayoutFailed  = "payout.failed"
	RoutePayoutSettled = "payout.settled"
)

// Event — событие жизненного цикла, публикуемое наружу.
type Event struct {
	Route      string    `json:"route"`
	EntityID   uuid.UUID `json:"entity_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier — внешний коллаборатор. Ошибки публикации логируются и не
// влияют на исход доменной операции.
type Notifier interface {
	Publish(ctx context.Context, ev Event) error
}

// LogNotifier пишет события в лог. Используется, когда шина не настроена.
type LogNotifier struct {
	Log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) Publish(_ context.Context, ev Event) error {
	n.Log.WithFields(logrus.Fields{
		"route":       ev.Route,
		"entity_id":   ev.EntityID,
		"from_status": ev.FromStatus,
		"to_status":   ev.ToStatus,
		"actor_role":  ev.ActorRole,
	}).Info("notify: событие опубликовано в лог")
	return nil
}
