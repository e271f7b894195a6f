package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/domain/valueobject"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/notify"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type BookingRepo interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to string) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Booking, error)
	ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Booking, error)
}

// CreateBookingInput — данные нового бронирования.
type CreateBookingInput struct {
	ClientID        uuid.UUID
	ProProfileID    uuid.UUID
	EstimatedAmount int64
	ScheduledAt     time.Time
}

// BookingService — жизненный цикл бронирований с выездом исполнителя.
// Бронирование рождается в pending_payment; в pending его переводит
// только сверка после захвата предоплаты.
type BookingService struct {
	bookings  BookingRepo
	payments  OrderPaymentRepo
	providers *provider.Registry
	notifier  notify.Notifier
	currency  string
	log       *logrus.Logger
}

func NewBookingService(
	bookings BookingRepo,
	payments OrderPaymentRepo,
	providers *provider.Registry,
	notifier notify.Notifier,
	currency string,
	log *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		payments:  payments,
		providers: providers,
		notifier:  notifier,
		currency:  currency,
		log:       log,
	}
}

// Create создаёт бронирование и сразу платёжное намерение под предоплату.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput, providerName string) (*models.Booking, *provider.Handle, error) {
	if in.EstimatedAmount <= 0 {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "бронирование требует положительной оценки стоимости")
	}
	adapter, ok := s.providers.Get(providerName)
	if !ok {
		return nil, nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("неизвестный провайдер %q", providerName))
	}

	booking := &models.Booking{
		ID:              uuid.New(),
		ClientID:        in.ClientID,
		ProProfileID:    in.ProProfileID,
		Status:          string(statemachine.BookingStatusPendingPayment),
		EstimatedAmount: in.EstimatedAmount,
		Currency:        s.currency,
		ScheduledAt:     in.ScheduledAt,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, nil, fmt.Errorf("booking: create: %w", err)
	}

	amount, err := valueobject.NewMoney(booking.EstimatedAmount, booking.Currency)
	if err != nil {
		return nil, nil, err
	}
	handle, err := adapter.CreatePaymentIntent(ctx, booking.ID, amount)
	if err != nil {
		if errors.Is(err, provider.ErrRejected) {
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, "провайдер отклонил платёж")
		}
		return nil, nil, err
	}

	payment := &models.Payment{
		ID:                uuid.New(),
		BookingID:         &booking.ID,
		Provider:          providerName,
		ProviderReference: handle.Reference,
		Status:            string(statemachine.PaymentStatusCreated),
		AmountEstimated:   booking.EstimatedAmount,
		Currency:          booking.Currency,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("booking: create payment: %w", err)
	}

	return booking, handle, nil
}

func (s *BookingService) GetByID(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, actor); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.ListByClient(ctx, clientID, limit, offset)
}

func (s *BookingService) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.bookings.ListByPro(ctx, proProfileID, limit, offset)
}

// Transition — один переход статуса бронирования от имени актора.
func (s *BookingService) Transition(ctx context.Context, bookingID uuid.UUID, to statemachine.BookingStatus, actor Actor) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(booking, actor); err != nil {
		return nil, err
	}
	if err := statemachine.Check(statemachine.EntityBooking, booking.Status, string(to), actor.Role); err != nil {
		return nil, err
	}

	if err := s.bookings.UpdateStatus(ctx, bookingID, booking.Status, string(to)); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, statemachine.NewIllegalTransition(statemachine.EntityBooking, booking.Status, string(to), actor.Role)
		}
		return nil, fmt.Errorf("booking: update status: %w", err)
	}

	s.publishStatus(ctx, bookingID, booking.Status, string(to), actor.Role)
	return s.bookings.GetByID(ctx, bookingID)
}

func (s *BookingService) Accept(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	return s.Transition(ctx, id, statemachine.BookingStatusAccepted, actor)
}

func (s *BookingService) OnMyWay(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	return s.Transition(ctx, id, statemachine.BookingStatusOnMyWay, actor)
}

func (s *BookingService) Arrived(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	return s.Transition(ctx, id, statemachine.BookingStatusArrived, actor)
}

func (s *BookingService) Complete(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	return s.Transition(ctx, id, statemachine.BookingStatusCompleted, actor)
}

func (s *BookingService) Reject(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	return s.Transition(ctx, id, statemachine.BookingStatusRejected, actor)
}

func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*models.Booking, error) {
	return s.Transition(ctx, id, statemachine.BookingStatusCancelled, actor)
}

func (s *BookingService) authorize(booking *models.Booking, actor Actor) error {
	switch actor.Role {
	case statemachine.RoleAdmin, statemachine.RoleSystem:
		return nil
	case statemachine.RoleClient:
		if booking.ClientID != actor.UserID {
			return apperror.ErrForbidden
		}
	case statemachine.RolePro:
		if actor.ProProfileID == nil || booking.ProProfileID != *actor.ProProfileID {
			return apperror.ErrForbidden
		}
	default:
		return apperror.ErrForbidden
	}
	return nil
}

func (s *BookingService) publishStatus(ctx context.Context, bookingID uuid.UUID, from, to string, role statemachine.Role) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Publish(ctx, notify.Event{
		Route:      notify.RouteBookingStatus,
		EntityID:   bookingID,
		FromStatus: from,
		ToStatus:   to,
		ActorRole:  string(role),
		OccurredAt: time.Now(),
	})
	if err != nil {
		s.log.WithError(err).WithField("booking_id", bookingID).Warn("booking: уведомление не опубликовано")
	}
}
