package models

import (
	"time"

	"github.com/google/uuid"
)

// ProProfile — платёжный профиль исполнителя. Исполнитель без
// подтверждённых реквизитов виден в админских списках, но не может быть
// целью создания выплаты.
type ProProfile struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	UserID              uuid.UUID  `db:"user_id" json:"user_id"`
	DisplayName         string     `db:"display_name" json:"display_name"`
	PayoutDestination   *string    `db:"payout_destination" json:"payout_destination,omitempty"`
	DestinationVerified bool       `db:"destination_verified" json:"destination_verified"`
	VerifiedAt          *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// PayoutReady: профиль может быть целью createForPro.
func (p *ProProfile) PayoutReady() bool {
	return p.DestinationVerified && p.PayoutDestination != nil && *p.PayoutDestination != ""
}

// ProPayableSummary — агрегат для админского списка исполнителей с
// начислениями к выплате.
type ProPayableSummary struct {
	ProProfileID        uuid.UUID `db:"pro_profile_id" json:"pro_profile_id"`
	DisplayName         string    `db:"display_name" json:"display_name"`
	EarningsCount       int       `db:"earnings_count" json:"earnings_count"`
	TotalNetAmount      int64     `db:"total_net_amount" json:"total_net_amount"`
	Currency            string    `db:"currency" json:"currency"`
	DestinationVerified bool      `db:"destination_verified" json:"destination_verified"`
}
