package models

import (
	"time"

	"github.com/google/uuid"
)

// Earning — деньги, причитающиеся исполнителю за один оплаченный заказ.
// Инвариант: NetAmount + PlatformFeeAmount == GrossAmount, точно, в
// минимальных единицах. На один заказ существует не более одного
// начисления (уникальный индекс по order_id).
type Earning struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	OrderID           uuid.UUID  `db:"order_id" json:"order_id"`
	ProProfileID      uuid.UUID  `db:"pro_profile_id" json:"pro_profile_id"`
	Status            string     `db:"status" json:"status"`
	GrossAmount       int64      `db:"gross_amount" json:"gross_amount"`
	PlatformFeeAmount int64      `db:"platform_fee_amount" json:"platform_fee_amount"`
	NetAmount         int64      `db:"net_amount" json:"net_amount"`
	Currency          string     `db:"currency" json:"currency"`
	// PayoutID заполняется при резервировании начисления пакетом выплаты.
	PayoutID    *uuid.UUID `db:"payout_id" json:"payout_id,omitempty"`
	AvailableAt time.Time  `db:"available_at" json:"available_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
