package dto

import "time"

// Все суммы в запросах и ответах — в минимальных единицах валюты.

// CreateOrderRequest — создание черновика заказа.
type CreateOrderRequest struct {
	ProProfileID         string     `json:"pro_profile_id,omitempty"`
	CategoryID           string     `json:"category_id" binding:"required,uuid"`
	PricingMode          string     `json:"pricing_mode" binding:"required,oneof=hourly fixed"`
	HourlyRateSnapshot   *int64     `json:"hourly_rate_snapshot,omitempty"`
	EstimatedHours       *int       `json:"estimated_hours,omitempty"`
	QuotedAmount         *int64     `json:"quoted_amount,omitempty"`
	ScheduledWindowStart *time.Time `json:"scheduled_window_start,omitempty"`
}

// CheckoutRequest — запуск оплаты заказа.
type CheckoutRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// ResolveDisputeRequest — решение спора админом.
type ResolveDisputeRequest struct {
	InProsFavor bool `json:"in_pros_favor"`
}

// CreateBookingRequest — создание бронирования с предоплатой.
type CreateBookingRequest struct {
	ProProfileID    string    `json:"pro_profile_id" binding:"required,uuid"`
	EstimatedAmount int64     `json:"estimated_amount" binding:"required,gt=0"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	Provider        string    `json:"provider" binding:"required"`
}

// CreatePayoutRequest — резервирование начислений исполнителя в выплату.
type CreatePayoutRequest struct {
	ProProfileID string `json:"pro_profile_id" binding:"required,uuid"`
	Provider     string `json:"provider" binding:"required"`
}

// CreateProProfileRequest — регистрация платёжного профиля исполнителя.
type CreateProProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// SetPayoutDestinationRequest — реквизиты выплат исполнителя.
type SetPayoutDestinationRequest struct {
	Destination string `json:"destination" binding:"required"`
}
