package models

import (
	"time"

	"github.com/google/uuid"
)

// Ценообразование заказа.
const (
	PricingModeHourly = "hourly"
	PricingModeFixed  = "fixed"
)

// Order описывает заказ клиента на услугу исполнителя. Все суммы — в
// минимальных единицах валюты. Заказ никогда не удаляется, только
// доводится до терминального статуса.
type Order struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	ClientID             uuid.UUID  `db:"client_id" json:"client_id"`
	ProProfileID         *uuid.UUID `db:"pro_profile_id" json:"pro_profile_id,omitempty"`
	CategoryID           uuid.UUID  `db:"category_id" json:"category_id"`
	Status               string     `db:"status" json:"status"`
	PricingMode          string     `db:"pricing_mode" json:"pricing_mode"`
	HourlyRateSnapshot   *int64     `db:"hourly_rate_snapshot" json:"hourly_rate_snapshot,omitempty"`
	EstimatedHours       *int       `db:"estimated_hours" json:"estimated_hours,omitempty"`
	QuotedAmount         *int64     `db:"quoted_amount" json:"quoted_amount,omitempty"`
	TotalAmount          int64      `db:"total_amount" json:"total_amount"`
	Currency             string     `db:"currency" json:"currency"`
	ScheduledWindowStart *time.Time `db:"scheduled_window_start" json:"scheduled_window_start,omitempty"`

	// Отметки времени переходов — по одной на пройденный статус.
	AcceptedAt  *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	ConfirmedAt *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CanceledAt  *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderStatusHistory — одна запись на каждый применённый переход статуса.
type OrderStatusHistory struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	FromStatus string    `db:"from_status" json:"from_status"`
	ToStatus   string    `db:"to_status" json:"to_status"`
	ActorRole  string    `db:"actor_role" json:"actor_role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
