// Package statemachine содержит таблицы переходов статусов для всех
// сущностей ядра. Таблицы — чистые данные: один и тот же вход всегда даёт
// один и тот же ответ, никакой логики времени внутри нет. Автоматические
// переходы по таймеру (авто-отмена, разморозка начислений) выполняет
// внешний планировщик, вызывающий те же контракты от роли system.
package statemachine

import (
	"fmt"

	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
)

// Role описывает, от чьего имени запрошен переход.
type Role string

const (
	RoleClient Role = "client"
	RolePro    Role = "pro"
	RoleAdmin  Role = "admin"
	// RoleSystem — переходы, инициированные самим сервисом: применение
	// провайдерских событий, планировщик, выплаты.
	RoleSystem Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RolePro, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Entity идентифицирует граф переходов.
type Entity string

const (
	EntityOrder   Entity = "order"
	EntityBooking Entity = "booking"
	EntityPayment Entity = "payment"
	EntityPayout  Entity = "payout"
	EntityEarning Entity = "earning"
)

// table: from → to → роли, которым разрешено ребро.
type table map[string]map[string][]Role

var tables = map[Entity]table{
	EntityOrder:   orderTransitions,
	EntityBooking: bookingTransitions,
	EntityPayment: paymentTransitions,
	EntityPayout:  payoutTransitions,
	EntityEarning: earningTransitions,
}

// CanTransition отвечает, разрешено ли ребро (from → to) роли role.
func CanTransition(entity Entity, from, to string, role Role) bool {
	tbl, ok := tables[entity]
	if !ok {
		return false
	}
	edges, ok := tbl[from]
	if !ok {
		return false
	}
	roles, ok := edges[to]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Check возвращает nil, если переход разрешён, либо ошибку
// ILLEGAL_TRANSITION с попыткой ребра для диагностики.
func Check(entity Entity, from, to string, role Role) error {
	if CanTransition(entity, from, to, role) {
		return nil
	}
	return NewIllegalTransition(entity, from, to, role)
}

// NewIllegalTransition создаёт ошибку о недопустимом переходе.
func NewIllegalTransition(entity Entity, from, to string, role Role) *apperror.AppError {
	return apperror.New(apperror.ErrCodeIllegalTransition,
		fmt.Sprintf("переход %s: %s -> %s запрещён для роли %s", entity, from, to, role))
}
