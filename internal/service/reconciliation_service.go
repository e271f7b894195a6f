package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/repository"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type PaymentEventRepo interface {
	Insert(ctx context.Context, ev *models.PaymentEvent) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkOrphaned(ctx context.Context, id uuid.UUID) error
	ListOrphaned(ctx context.Context, limit int) ([]models.PaymentEvent, error)
}

type PaymentRepo interface {
	GetByProviderReference(ctx context.Context, providerName, reference string) (*models.Payment, error)
	ApplyReconciliation(ctx context.Context, p *models.Payment, fromStatus string, orderUpdate *repository.OrderStatusUpdate, earning *models.Earning) error
}

type ReconOrderRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type ReconBookingRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to string) error
}

// ReconciliationService превращает доставку webhook'а провайдера не более
// чем в одну мутацию состояния. Идемпотентность двухслойная: журнал
// событий гарантирует "один webhook не обрабатывается дважды", проверка
// легальности перехода — "устаревшее событие не откатывает сущность".
type ReconciliationService struct {
	events   PaymentEventRepo
	payments PaymentRepo
	orders   ReconOrderRepo
	bookings ReconBookingRepo
	earnings *EarningService
	log      *logrus.Logger
}

func NewReconciliationService(
	events PaymentEventRepo,
	payments PaymentRepo,
	orders ReconOrderRepo,
	bookings ReconBookingRepo,
	earnings *EarningService,
	log *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		events:   events,
		payments: payments,
		orders:   orders,
		bookings: bookings,
		earnings: earnings,
		log:      log,
	}
}

// Fingerprint — стабильный отпечаток события провайдера.
func Fingerprint(ev *provider.ParsedProviderEvent) string {
	h := sha256.New()
	h.Write([]byte(ev.Provider))
	h.Write([]byte{'|'})
	h.Write([]byte(ev.Reference))
	h.Write([]byte{'|'})
	h.Write([]byte(ev.EventType))
	h.Write([]byte{'|'})
	h.Write(ev.Payload)
	return hex.EncodeToString(h.Sum(nil))
}

// HandleProviderWebhook применяет провайдерское событие.
//
// Порядок жёсткий: сначала атомарная вставка в журнал (дубликат — успех и
// no-op), затем поиск платежа, затем легальность перехода, затем запись
// платежа, зависимого перехода заказа и начисления одной транзакцией.
// Строка журнала не откатывается вместе с этой транзакцией: повтор того
// же события от провайдера обязан поглощаться даже после частичного сбоя.
func (s *ReconciliationService) HandleProviderWebhook(ctx context.Context, ev *provider.ParsedProviderEvent) error {
	record := &models.PaymentEvent{
		ID:                uuid.New(),
		Provider:          ev.Provider,
		ProviderReference: ev.Reference,
		EventType:         ev.EventType,
		Fingerprint:       Fingerprint(ev),
		Kind:              string(ev.Kind),
		Amount:            ev.Amount,
		Currency:          ev.Currency,
		Payload:           ev.Payload,
	}

	if err := s.events.Insert(ctx, record); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			// Повторная доставка уже виденного события — успех без работы.
			s.log.WithFields(logrus.Fields{
				"provider":  ev.Provider,
				"reference": ev.Reference,
				"type":      ev.EventType,
			}).Debug("reconciliation: дубликат webhook поглощён")
			return nil
		}
		return fmt.Errorf("reconciliation: insert event: %w", err)
	}

	return s.applyEvent(ctx, record)
}

// applyEvent — шаги после журнала; переиспользуется фоновой доработкой
// осиротевших событий.
func (s *ReconciliationService) applyEvent(ctx context.Context, record *models.PaymentEvent) error {
	payment, err := s.payments.GetByProviderReference(ctx, record.Provider, record.ProviderReference)
	if err != nil {
		if apperror.IsNotFound(err) {
			// Webhook обогнал локальную строку платежа. Событие остаётся в
			// журнале с пометкой orphaned, провайдер получит успех и не
			// будет штормить ретраями; фоновая сверка доработает позже.
			if markErr := s.events.MarkOrphaned(ctx, record.ID); markErr != nil {
				return fmt.Errorf("reconciliation: mark orphaned: %w", markErr)
			}
			return apperror.Wrap(err, apperror.ErrCodeOrphanedWebhookEvent,
				fmt.Sprintf("платёж %s/%s ещё не существует", record.Provider, record.ProviderReference))
		}
		return err
	}

	target, ok := kindToPaymentStatus(provider.EventKind(record.Kind))
	if !ok {
		s.log.WithField("kind", record.Kind).Warn("reconciliation: событие без целевого статуса, пропущено")
		return s.events.MarkProcessed(ctx, record.ID)
	}

	if err := statemachine.Check(statemachine.EntityPayment, payment.Status, string(target), statemachine.RoleSystem); err != nil {
		// Устаревшее событие: журнал его принял, но состояние уже ушло
		// дальше. Логируем и поглощаем, провайдеру это не ошибка.
		s.log.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"from":       payment.Status,
			"to":         target,
			"type":       record.EventType,
		}).Warn("reconciliation: устаревшее событие отклонено таблицей переходов")
		return s.events.MarkProcessed(ctx, record.ID)
	}

	fromStatus := payment.Status
	s.applyAmounts(payment, provider.EventKind(record.Kind), record.Amount)
	payment.Status = string(target)

	orderUpdate, earning, err := s.dependentOrderUpdate(ctx, payment, provider.EventKind(record.Kind))
	if err != nil {
		return err
	}

	if err := s.payments.ApplyReconciliation(ctx, payment, fromStatus, orderUpdate, earning); err != nil {
		switch {
		case errors.Is(err, common.ErrStaleState):
			// Конкурирующий писатель успел раньше; наше событие устарело.
			s.log.WithField("payment_id", payment.ID).Warn("reconciliation: переход проигран конкуренту, событие поглощено")
			return s.events.MarkProcessed(ctx, record.ID)
		case errors.Is(err, common.ErrAlreadyExists):
			// Гонка двойного перехода в paid: начисление уже есть.
			s.log.WithField("payment_id", payment.ID).Warn("reconciliation: начисление уже существует, событие поглощено")
			return s.events.MarkProcessed(ctx, record.ID)
		}
		return fmt.Errorf("reconciliation: apply: %w", err)
	}

	if provider.EventKind(record.Kind) == provider.EventRefunded && payment.OrderID != nil {
		if err := s.earnings.ReverseForOrder(ctx, *payment.OrderID); err != nil {
			s.log.WithError(err).Error("reconciliation: не удалось аннулировать начисление после возврата")
		}
	}

	if payment.BookingID != nil && provider.EventKind(record.Kind) == provider.EventCaptured {
		s.confirmBooking(ctx, *payment.BookingID)
	}

	return s.events.MarkProcessed(ctx, record.ID)
}

// ProcessOrphans дорабатывает осиротевшие события, для которых локальный
// платёж уже появился. Вызывается планировщиком.
func (s *ReconciliationService) ProcessOrphans(ctx context.Context, limit int) (int, error) {
	events, err := s.events.ListOrphaned(ctx, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range events {
		record := events[i]
		if err := s.applyEvent(ctx, &record); err != nil {
			if apperror.IsOrphanedWebhook(err) {
				continue // платёж всё ещё не появился
			}
			s.log.WithError(err).WithField("event_id", record.ID).Error("reconciliation: доработка осиротевшего события не удалась")
			continue
		}
		processed++
	}
	return processed, nil
}

// applyAmounts обновляет суммы платежа по виду события и проверяет
// инвариант captured <= authorized <= estimated.
func (s *ReconciliationService) applyAmounts(payment *models.Payment, kind provider.EventKind, amount int64) {
	switch kind {
	case provider.EventAuthorized:
		if amount > 0 {
			payment.AmountAuthorized = amount
		} else {
			payment.AmountAuthorized = payment.AmountEstimated
		}
	case provider.EventCaptured:
		if payment.AmountAuthorized == 0 {
			// Провайдер схлопнул авторизацию и захват в одно событие.
			payment.AmountAuthorized = amount
		}
		if amount > 0 {
			payment.AmountCaptured = amount
		} else {
			payment.AmountCaptured = payment.AmountAuthorized
		}
	}

	if !payment.AmountsConsistent() {
		payment.Inconsistent = true
		s.log.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"estimated":  payment.AmountEstimated,
			"authorized": payment.AmountAuthorized,
			"captured":   payment.AmountCaptured,
		}).Error("reconciliation: суммы платежа нарушают инвариант, строка помечена")
	}
}

// dependentOrderUpdate вычисляет зависимый переход заказа. Захват
// предоплаты подтверждает принятый заказ; захват после приёмки работ
// оплачивает завершённый заказ и порождает начисление.
func (s *ReconciliationService) dependentOrderUpdate(ctx context.Context, payment *models.Payment, kind provider.EventKind) (*repository.OrderStatusUpdate, *models.Earning, error) {
	if payment.OrderID == nil || kind != provider.EventCaptured {
		return nil, nil, nil
	}

	order, err := s.orders.GetByID(ctx, *payment.OrderID)
	if err != nil {
		return nil, nil, err
	}

	switch statemachine.OrderStatus(order.Status) {
	case statemachine.OrderStatusAccepted:
		if order.PricingMode == models.PricingModeFixed {
			return &repository.OrderStatusUpdate{
				OrderID:   order.ID,
				From:      order.Status,
				To:        string(statemachine.OrderStatusConfirmed),
				ActorRole: string(statemachine.RoleSystem),
			}, nil, nil
		}
	case statemachine.OrderStatusCompleted:
		earning, err := s.earnings.BuildForPaidOrder(order)
		if err != nil {
			return nil, nil, err
		}
		return &repository.OrderStatusUpdate{
			OrderID:   order.ID,
			From:      order.Status,
			To:        string(statemachine.OrderStatusPaid),
			ActorRole: string(statemachine.RoleSystem),
		}, earning, nil
	}

	// Захват в остальных статусах не двигает заказ.
	return nil, nil, nil
}

// confirmBooking переводит бронирование из pending_payment в pending.
func (s *ReconciliationService) confirmBooking(ctx context.Context, bookingID uuid.UUID) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", bookingID).Error("reconciliation: бронирование не найдено")
		return
	}
	if statemachine.BookingStatus(booking.Status) != statemachine.BookingStatusPendingPayment {
		return
	}
	err = s.bookings.UpdateStatus(ctx, bookingID,
		string(statemachine.BookingStatusPendingPayment), string(statemachine.BookingStatusPending))
	if err != nil && !errors.Is(err, common.ErrStaleState) {
		s.log.WithError(err).WithField("booking_id", bookingID).Error("reconciliation: не удалось подтвердить бронирование")
	}
}

func kindToPaymentStatus(kind provider.EventKind) (statemachine.PaymentStatus, bool) {
	switch kind {
	case provider.EventRequiresAction:
		return statemachine.PaymentStatusRequiresAction, true
	case provider.EventAuthorized:
		return statemachine.PaymentStatusAuthorized, true
	case provider.EventCaptured:
		return statemachine.PaymentStatusCaptured, true
	case provider.EventFailed:
		return statemachine.PaymentStatusFailed, true
	case provider.EventRefunded:
		return statemachine.PaymentStatusRefunded, true
	case provider.EventCancelled:
		return statemachine.PaymentStatusCancelled, true
	}
	return "", false
}
