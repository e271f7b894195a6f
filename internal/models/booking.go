package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking — упрощённая параллельная сущность заказа для сценариев
// с выездом исполнителя (on_my_way, arrived).
type Booking struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	ClientID        uuid.UUID  `db:"client_id" json:"client_id"`
	ProProfileID    uuid.UUID  `db:"pro_profile_id" json:"pro_profile_id"`
	Status          string     `db:"status" json:"status"`
	EstimatedAmount int64      `db:"estimated_amount" json:"estimated_amount"`
	Currency        string     `db:"currency" json:"currency"`
	ScheduledAt     time.Time  `db:"scheduled_at" json:"scheduled_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
