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

// Actor — инициатор операции с точки зрения доменных проверок.
type Actor struct {
	UserID       uuid.UUID
	ProProfileID *uuid.UUID
	Role         statemachine.Role
}

type OrderRepo interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to, actorRole string) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Order, error)
	ListStaleUnconfirmed(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	History(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
}

type OrderPaymentRepo interface {
	Create(ctx context.Context, p *models.Payment) error
}

// CreateOrderInput — данные черновика заказа.
type CreateOrderInput struct {
	ClientID             uuid.UUID
	ProProfileID         *uuid.UUID
	CategoryID           uuid.UUID
	PricingMode          string
	HourlyRateSnapshot   *int64
	EstimatedHours       *int
	QuotedAmount         *int64
	ScheduledWindowStart *time.Time
}

// OrderService — оркестратор жизненного цикла заказа. Сам ничего не знает
// о провайдерских событиях: переходы, инициированные webhook'ами, делает
// сервис сверки.
type OrderService struct {
	orders    OrderRepo
	payments  OrderPaymentRepo
	earnings  *EarningService
	providers *provider.Registry
	notifier  notify.Notifier
	currency  string
	log       *logrus.Logger
}

func NewOrderService(
	orders OrderRepo,
	payments OrderPaymentRepo,
	earnings *EarningService,
	providers *provider.Registry,
	notifier notify.Notifier,
	currency string,
	log *logrus.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		payments:  payments,
		earnings:  earnings,
		providers: providers,
		notifier:  notifier,
		currency:  currency,
		log:       log,
	}
}

// CreateDraft создаёт черновик и фиксирует снимок цены. Почасовой заказ
// оценивается как ставка на оценку часов, фиксированный — по оферте.
func (s *OrderService) CreateDraft(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	total, err := computeTotal(in)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:                   uuid.New(),
		ClientID:             in.ClientID,
		ProProfileID:         in.ProProfileID,
		CategoryID:           in.CategoryID,
		Status:               string(statemachine.OrderStatusDraft),
		PricingMode:          in.PricingMode,
		HourlyRateSnapshot:   in.HourlyRateSnapshot,
		EstimatedHours:       in.EstimatedHours,
		QuotedAmount:         in.QuotedAmount,
		TotalAmount:          total,
		Currency:             s.currency,
		ScheduledWindowStart: in.ScheduledWindowStart,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("order: create draft: %w", err)
	}
	return order, nil
}

func computeTotal(in CreateOrderInput) (int64, error) {
	switch in.PricingMode {
	case models.PricingModeHourly:
		if in.HourlyRateSnapshot == nil || *in.HourlyRateSnapshot <= 0 {
			return 0, apperror.New(apperror.ErrCodeValidation, "почасовой заказ требует положительной ставки")
		}
		if in.EstimatedHours == nil || *in.EstimatedHours <= 0 {
			return 0, apperror.New(apperror.ErrCodeValidation, "почасовой заказ требует оценки часов")
		}
		return *in.HourlyRateSnapshot * int64(*in.EstimatedHours), nil
	case models.PricingModeFixed:
		if in.QuotedAmount == nil || *in.QuotedAmount <= 0 {
			return 0, apperror.New(apperror.ErrCodeValidation, "фиксированный заказ требует положительной суммы оферты")
		}
		return *in.QuotedAmount, nil
	}
	return 0, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("неизвестный режим ценообразования %q", in.PricingMode))
}

func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) History(ctx context.Context, id uuid.UUID, actor Actor) ([]models.OrderStatusHistory, error) {
	if _, err := s.GetByID(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.orders.History(ctx, id)
}

func (s *OrderService) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByClient(ctx, clientID, limit, offset)
}

func (s *OrderService) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.orders.ListByPro(ctx, proProfileID, limit, offset)
}

// Transition применяет один переход статуса от имени актора: проверка
// принадлежности, затем легальность по таблице, затем охраняемый UPDATE.
// Проигранная гонка неотличима для вызывающего от нелегального перехода.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, to statemachine.OrderStatus, actor Actor) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(order, actor); err != nil {
		return nil, err
	}
	if err := statemachine.Check(statemachine.EntityOrder, order.Status, string(to), actor.Role); err != nil {
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, string(to), string(actor.Role)); err != nil {
		if errors.Is(err, common.ErrStaleState) {
			return nil, statemachine.NewIllegalTransition(statemachine.EntityOrder, order.Status, string(to), actor.Role)
		}
		return nil, fmt.Errorf("order: update status: %w", err)
	}

	s.publishStatus(ctx, orderID, order.Status, string(to), actor.Role)

	updated, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// authorize: клиент видит только свои заказы, исполнитель — только
// назначенные ему; админ и system не ограничены.
func (s *OrderService) authorize(order *models.Order, actor Actor) error {
	switch actor.Role {
	case statemachine.RoleAdmin, statemachine.RoleSystem:
		return nil
	case statemachine.RoleClient:
		if order.ClientID != actor.UserID {
			return apperror.ErrForbidden
		}
	case statemachine.RolePro:
		if order.ProProfileID == nil || actor.ProProfileID == nil || *order.ProProfileID != *actor.ProProfileID {
			return apperror.ErrForbidden
		}
	default:
		return apperror.ErrForbidden
	}
	return nil
}

func (s *OrderService) Submit(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusPendingProConfirmation, actor)
}

func (s *OrderService) Accept(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusAccepted, actor)
}

// Reject — отказ исполнителя от предложенного заказа. Отдельного статуса
// нет: отказ ведёт заказ в canceled тем же переходом.
func (s *OrderService) Reject(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusCanceled, actor)
}

func (s *OrderService) Confirm(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusConfirmed, actor)
}

func (s *OrderService) Start(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusInProgress, actor)
}

func (s *OrderService) Complete(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusAwaitingClientApproval, actor)
}

func (s *OrderService) Approve(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusCompleted, actor)
}

func (s *OrderService) Dispute(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusDisputed, actor)
}

// ResolveDispute закрывает спор в пользу исполнителя (completed) либо
// клиента (canceled). Только админ.
func (s *OrderService) ResolveDispute(ctx context.Context, orderID uuid.UUID, inProsFavor bool, actor Actor) (*models.Order, error) {
	to := statemachine.OrderStatusCanceled
	if inProsFavor {
		to = statemachine.OrderStatusCompleted
	}
	return s.Transition(ctx, orderID, to, actor)
}

func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	return s.Transition(ctx, orderID, statemachine.OrderStatusCanceled, actor)
}

// MarkPaid — ручной перевод завершённого заказа в paid (админ фиксирует
// оплату вне провайдера). Начисление создаётся следом; дубликат означает,
// что сверка успела раньше, и молча поглощается.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.Transition(ctx, orderID, statemachine.OrderStatusPaid, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.earnings.CreateForPaidOrder(ctx, order); err != nil {
		if apperror.IsDuplicateEarning(err) {
			s.log.WithField("order_id", orderID).Warn("order: начисление уже создано сверкой")
			return order, nil
		}
		return nil, err
	}
	return order, nil
}

// Checkout создаёт платёжное намерение у провайдера и локальную строку
// платежа. Дальше заказом управляют только провайдерские события.
func (s *OrderService) Checkout(ctx context.Context, orderID uuid.UUID, providerName string, actor Actor) (*models.Payment, *provider.Handle, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(order, actor); err != nil {
		return nil, nil, err
	}

	switch statemachine.OrderStatus(order.Status) {
	case statemachine.OrderStatusAccepted, statemachine.OrderStatusCompleted:
		// предоплата фиксированного заказа либо пост-оплата работ
	default:
		return nil, nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("заказ в статусе %s не готов к оплате", order.Status))
	}

	adapter, ok := s.providers.Get(providerName)
	if !ok {
		return nil, nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("неизвестный провайдер %q", providerName))
	}
	amount, err := valueobject.NewMoney(order.TotalAmount, order.Currency)
	if err != nil {
		return nil, nil, err
	}

	handle, err := adapter.CreatePaymentIntent(ctx, order.ID, amount)
	if err != nil {
		if errors.Is(err, provider.ErrRejected) {
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, "провайдер отклонил платёж")
		}
		return nil, nil, err
	}

	payment := &models.Payment{
		ID:                uuid.New(),
		OrderID:           &order.ID,
		Provider:          providerName,
		ProviderReference: handle.Reference,
		Status:            string(statemachine.PaymentStatusCreated),
		AmountEstimated:   order.TotalAmount,
		Currency:          order.Currency,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, nil, fmt.Errorf("order: create payment: %w", err)
	}

	return payment, handle, nil
}

// AutoCancelStale отменяет заказы, которые исполнитель не подтвердил за
// отведённый срок. Вызывается планировщиком.
func (s *OrderService) AutoCancelStale(ctx context.Context, ttl time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-ttl)
	orders, err := s.orders.ListStaleUnconfirmed(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	canceled := 0
	for i := range orders {
		o := orders[i]
		err := s.orders.UpdateStatus(ctx, o.ID,
			string(statemachine.OrderStatusPendingProConfirmation),
			string(statemachine.OrderStatusCanceled),
			string(statemachine.RoleSystem))
		if err != nil {
			if errors.Is(err, common.ErrStaleState) {
				continue // заказ успели подтвердить или отменить
			}
			return canceled, fmt.Errorf("order: auto-cancel %s: %w", o.ID, err)
		}
		s.publishStatus(ctx, o.ID,
			string(statemachine.OrderStatusPendingProConfirmation),
			string(statemachine.OrderStatusCanceled), statemachine.RoleSystem)
		canceled++
	}
	return canceled, nil
}

func (s *OrderService) publishStatus(ctx context.Context, orderID uuid.UUID, from, to string, role statemachine.Role) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Publish(ctx, notify.Event{
		Route:      notify.RouteOrderStatus,
		EntityID:   orderID,
		FromStatus: from,
		ToStatus:   to,
		ActorRole:  string(role),
		OccurredAt: time.Now(),
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("order: уведомление не опубликовано")
	}
}
