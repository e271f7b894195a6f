package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout — пакет перевода одного или нескольких начислений одному
// исполнителю. Amount равен сумме net_amount зарезервированных начислений
// на момент создания. Неудачные выплаты повторяются только явно, той же
// строкой.
type Payout struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	ProProfileID      uuid.UUID  `db:"pro_profile_id" json:"pro_profile_id"`
	Provider          string     `db:"provider" json:"provider"`
	Status            string     `db:"status" json:"status"`
	Amount            int64      `db:"amount" json:"amount"`
	Currency          string     `db:"currency" json:"currency"`
	ProviderReference *string    `db:"provider_reference" json:"provider_reference,omitempty"`
	FailureReason     *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	SettledAt         *time.Time `db:"settled_at" json:"settled_at,omitempty"`
}
