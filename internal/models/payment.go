package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment — одна транзакция платёжного провайдера, привязанная ровно к
// одному заказу или бронированию. Мутируется только сервисом сверки при
// применении провайдерских событий.
type Payment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	OrderID           *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	BookingID         *uuid.UUID `db:"booking_id" json:"booking_id,omitempty"`
	Provider          string     `db:"provider" json:"provider"`
	ProviderReference string     `db:"provider_reference" json:"provider_reference"`
	Status            string     `db:"status" json:"status"`
	AmountEstimated   int64      `db:"amount_estimated" json:"amount_estimated"`
	AmountAuthorized  int64      `db:"amount_authorized" json:"amount_authorized"`
	AmountCaptured    int64      `db:"amount_captured" json:"amount_captured"`
	Currency          string     `db:"currency" json:"currency"`
	// Inconsistent выставляется при нарушении captured <= authorized <= estimated.
	Inconsistent bool      `db:"inconsistent" json:"inconsistent"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AmountsConsistent проверяет инвариант сумм платежа.
func (p *Payment) AmountsConsistent() bool {
	return p.AmountCaptured <= p.AmountAuthorized && p.AmountAuthorized <= p.AmountEstimated
}

// PaymentEvent — строка журнала идемпотентности: одно сырое событие
// провайдера. Создаётся один раз, никогда не мутируется (кроме отметок
// processed/orphaned); существование строки — единственный механизм
// защиты от повторной обработки.
type PaymentEvent struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Provider          string     `db:"provider" json:"provider"`
	ProviderReference string     `db:"provider_reference" json:"provider_reference"`
	EventType         string     `db:"event_type" json:"event_type"`
	// Fingerprint: sha256(provider|reference|type|payload), уникален.
	Fingerprint string `db:"fingerprint" json:"fingerprint"`
	// Нормализованные поля события — достаточно, чтобы фоновая сверка
	// доработала осиротевшее событие без повторного разбора payload.
	Kind     string `db:"kind" json:"kind"`
	Amount   int64  `db:"amount" json:"amount"`
	Currency string `db:"currency" json:"currency"`

	Payload     []byte     `db:"payload" json:"-"`
	Orphaned    bool       `db:"orphaned" json:"orphaned"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
