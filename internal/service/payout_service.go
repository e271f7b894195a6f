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
	"github.com/hogarya/hogarya-backend/internal/repository"
)

type PayoutRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error)
	List(ctx context.Context, limit, offset int) ([]models.Payout, error)
	CreateForPro(ctx context.Context, proProfileID uuid.UUID, providerName, currency string) (*models.Payout, error)
	ReserveForRetry(ctx context.Context, payoutID uuid.UUID) (int64, error)
	MarkSent(ctx context.Context, payoutID uuid.UUID, providerReference string) error
	MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error
	MarkSettled(ctx context.Context, payoutID uuid.UUID) error
}

type ProProfileRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProProfile, error)
}

type PayableLister interface {
	ListPayableSummaries(ctx context.Context) ([]models.ProPayableSummary, error)
}

// PayoutService управляет жизненным циклом выплат: резервирование
// начислений пакетом, отправка через провайдера с ограниченными
// повторами, подтверждение зачисления.
type PayoutService struct {
	payouts   PayoutRepo
	profiles  ProProfileRepo
	earnings  PayableLister
	providers *provider.Registry
	notifier  notify.Notifier
	currency  string

	sendAttempts int
	sendBackoff  time.Duration

	log *logrus.Logger
}

func NewPayoutService(
	payouts PayoutRepo,
	profiles ProProfileRepo,
	earnings PayableLister,
	providers *provider.Registry,
	notifier notify.Notifier,
	currency string,
	sendAttempts int,
	sendBackoff time.Duration,
	log *logrus.Logger,
) *PayoutService {
	if sendAttempts < 1 {
		sendAttempts = 1
	}
	return &PayoutService{
		payouts:      payouts,
		profiles:     profiles,
		earnings:     earnings,
		providers:    providers,
		notifier:     notifier,
		currency:     currency,
		sendAttempts: sendAttempts,
		sendBackoff:  sendBackoff,
		log:          log,
	}
}

// ListPayablePros — исполнители, у которых есть начисления к выплате.
func (s *PayoutService) ListPayablePros(ctx context.Context) ([]models.ProPayableSummary, error) {
	return s.earnings.ListPayableSummaries(ctx)
}

// CreateForPro резервирует все payable-начисления исполнителя в новую
// выплату. Сумма считается из фактически зарезервированных строк, поэтому
// конкурирующие вызовы не могут посчитать одно начисление дважды.
func (s *PayoutService) CreateForPro(ctx context.Context, proProfileID uuid.UUID, providerName string) (*models.Payout, error) {
	profile, err := s.profiles.GetByID(ctx, proProfileID)
	if err != nil {
		return nil, err
	}
	if !profile.PayoutReady() {
		return nil, apperror.ErrIncompleteProfile
	}
	if _, ok := s.providers.Get(providerName); !ok {
		return nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("неизвестный провайдер %q", providerName))
	}

	payout, err := s.payouts.CreateForPro(ctx, proProfileID, providerName, s.currency)
	if err != nil {
		if errors.Is(err, repository.ErrNoPayableEarnings) {
			return nil, apperror.ErrNoPayableEarnings
		}
		return nil, fmt.Errorf("payout: create: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"payout_id":      payout.ID,
		"pro_profile_id": proProfileID,
		"amount":         payout.Amount,
	}).Info("payout: выплата создана")
	return payout, nil
}

// Send отправляет выплату провайдеру. Повторная отправка FAILED-выплаты
// сначала заново резервирует её начисления; расхождение суммы означает,
// что часть начислений забрал более новый пакет, и выплата невозвратно
// проваливается.
func (s *PayoutService) Send(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	switch statemachine.PayoutStatus(payout.Status) {
	case statemachine.PayoutStatusCreated:
		// первая отправка
	case statemachine.PayoutStatusFailed:
		reserved, err := s.payouts.ReserveForRetry(ctx, payoutID)
		if err != nil {
			return nil, fmt.Errorf("payout: reserve for retry: %w", err)
		}
		if reserved != payout.Amount {
			reason := fmt.Sprintf("при повторе зарезервировано %d из %d", reserved, payout.Amount)
			if markErr := s.payouts.MarkFailed(ctx, payoutID, reason); markErr != nil {
				s.log.WithError(markErr).WithField("payout_id", payoutID).Error("payout: не удалось зафиксировать расхождение суммы")
			}
			return nil, apperror.New(apperror.ErrCodeConflict,
				"состав выплаты изменился, начисления ушли в другой пакет")
		}
	default:
		return nil, statemachine.NewIllegalTransition(statemachine.EntityPayout,
			payout.Status, string(statemachine.PayoutStatusSent), statemachine.RoleAdmin)
	}

	profile, err := s.profiles.GetByID(ctx, payout.ProProfileID)
	if err != nil {
		return nil, err
	}
	if !profile.PayoutReady() {
		return nil, apperror.ErrIncompleteProfile
	}

	adapter, ok := s.providers.Get(payout.Provider)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("неизвестный провайдер %q", payout.Provider))
	}
	amount, err := valueobject.NewMoney(payout.Amount, payout.Currency)
	if err != nil {
		return nil, err
	}

	reference, err := s.sendWithRetry(ctx, adapter, payout, *profile.PayoutDestination, amount)
	if err != nil {
		reason := err.Error()
		if markErr := s.payouts.MarkFailed(ctx, payoutID, reason); markErr != nil {
			s.log.WithError(markErr).WithField("payout_id", payoutID).Error("payout: не удалось пометить выплату проваленной")
		}
		s.publish(ctx, notify.RoutePayoutFailed, payout, reason)
		return nil, err
	}

	if err := s.payouts.MarkSent(ctx, payoutID, reference); err != nil {
		return nil, fmt.Errorf("payout: mark sent: %w", err)
	}
	s.publish(ctx, notify.RoutePayoutSent, payout, "")

	return s.payouts.GetByID(ctx, payoutID)
}

// sendWithRetry повторяет только недоступность провайдера, с
// экспоненциальной паузой. Явный отказ провайдера не ретраится.
func (s *PayoutService) sendWithRetry(ctx context.Context, adapter provider.Adapter, payout *models.Payout, destination string, amount valueobject.Money) (string, error) {
	backoff := s.sendBackoff
	var lastErr error

	for attempt := 1; attempt <= s.sendAttempts; attempt++ {
		reference, err := adapter.SendPayout(ctx, payout.ID, destination, amount)
		if err == nil {
			return reference, nil
		}
		if errors.Is(err, provider.ErrRejected) {
			return "", apperror.Wrap(err, apperror.ErrCodeValidation, "провайдер отклонил выплату")
		}
		lastErr = err
		s.log.WithError(err).WithFields(logrus.Fields{
			"payout_id": payout.ID,
			"attempt":   attempt,
		}).Warn("payout: отправка не удалась")

		if attempt == s.sendAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return "", apperror.Wrap(lastErr, apperror.ErrCodeProviderUnavailable,
		fmt.Sprintf("провайдер недоступен после %d попыток", s.sendAttempts))
}

// Settle подтверждает зачисление отправленной выплаты.
func (s *PayoutService) Settle(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if err := statemachine.Check(statemachine.EntityPayout, payout.Status,
		string(statemachine.PayoutStatusSettled), statemachine.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.payouts.MarkSettled(ctx, payoutID); err != nil {
		return nil, fmt.Errorf("payout: mark settled: %w", err)
	}
	s.publish(ctx, notify.RoutePayoutSettled, payout, "")
	return s.payouts.GetByID(ctx, payoutID)
}

func (s *PayoutService) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	return s.payouts.GetByID(ctx, id)
}

func (s *PayoutService) List(ctx context.Context, limit, offset int) ([]models.Payout, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.payouts.List(ctx, limit, offset)
}

func (s *PayoutService) publish(ctx context.Context, route string, payout *models.Payout, reason string) {
	if s.notifier == nil {
		return
	}
	toStatus := map[string]string{
		notify.RoutePayoutSent:    string(statemachine.PayoutStatusSent),
		notify.RoutePayoutFailed:  string(statemachine.PayoutStatusFailed),
		notify.RoutePayoutSettled: string(statemachine.PayoutStatusSettled),
	}[route]
	ev := notify.Event{
		Route:      route,
		EntityID:   payout.ID,
		ToStatus:   toStatus,
		ActorRole:  string(statemachine.RoleAdmin),
		Amount:     payout.Amount,
		Currency:   payout.Currency,
		Reason:     reason,
		OccurredAt: time.Now(),
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("route", route).Warn("payout: уведомление не опубликовано")
	}
}
