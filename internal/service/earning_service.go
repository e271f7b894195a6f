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
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

// FeeResolver возвращает действующую ставку комиссии платформы в базисных
// пунктах для категории заказа. Источник ставки — конфигурация.
type FeeResolver func(categoryID uuid.UUID) int64

type EarningRepo interface {
	Insert(ctx context.Context, e *models.Earning) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Earning, error)
	ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Earning, error)
	ReleaseAvailable(ctx context.Context, now time.Time) (int64, error)
	ReverseByOrder(ctx context.Context, orderID uuid.UUID) error
}

// EarningService создаёт и сопровождает начисления исполнителям.
type EarningService struct {
	repo       EarningRepo
	resolveFee FeeResolver
	holdPeriod time.Duration
	log        *logrus.Logger
}

func NewEarningService(repo EarningRepo, resolveFee FeeResolver, holdPeriod time.Duration, log *logrus.Logger) *EarningService {
	return &EarningService{repo: repo, resolveFee: resolveFee, holdPeriod: holdPeriod, log: log}
}

// BuildForPaidOrder собирает начисление для заказа, перешедшего в paid:
// gross — полная сумма заказа, комиссия по ставке категории, net = gross - fee.
func (s *EarningService) BuildForPaidOrder(order *models.Order) (*models.Earning, error) {
	if order.ProProfileID == nil {
		return nil, apperror.New(apperror.ErrCodeInternal,
			fmt.Sprintf("заказ %s оплачен без назначенного исполнителя", order.ID))
	}

	gross, err := valueobject.NewMoney(order.TotalAmount, order.Currency)
	if err != nil {
		return nil, err
	}
	fee, net, err := gross.SplitFee(s.resolveFee(order.CategoryID))
	if err != nil {
		return nil, err
	}

	return &models.Earning{
		ID:                uuid.New(),
		OrderID:           order.ID,
		ProProfileID:      *order.ProProfileID,
		Status:            string(statemachine.EarningStatusPending),
		GrossAmount:       gross.Amount,
		PlatformFeeAmount: fee.Amount,
		NetAmount:         net.Amount,
		Currency:          gross.Currency,
		AvailableAt:       time.Now().Add(s.holdPeriod),
	}, nil
}

// CreateForPaidOrder создаёт начисление ровно один раз на заказ.
// Повторное применение того же перехода в paid упирается в уникальный
// индекс и возвращает DUPLICATE_EARNING.
func (s *EarningService) CreateForPaidOrder(ctx context.Context, order *models.Order) (*models.Earning, error) {
	earning, err := s.BuildForPaidOrder(order)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, earning); err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeDuplicateEarning,
				fmt.Sprintf("начисление по заказу %s уже существует", order.ID))
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"pro_id":     earning.ProProfileID,
		"gross":      earning.GrossAmount,
		"fee":        earning.PlatformFeeAmount,
		"net":        earning.NetAmount,
		"earning_id": earning.ID,
	}).Info("earnings: начисление создано")
	return earning, nil
}

// ReleaseAvailable размораживает начисления с истёкшим периодом
// удержания. Вызывается планировщиком.
func (s *EarningService) ReleaseAvailable(ctx context.Context) (int64, error) {
	released, err := s.repo.ReleaseAvailable(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if released > 0 {
		s.log.WithField("count", released).Info("earnings: начисления переведены в payable")
	}
	return released, nil
}

// ReverseForOrder аннулирует начисление при возврате средств или решении
// спора против исполнителя.
func (s *EarningService) ReverseForOrder(ctx context.Context, orderID uuid.UUID) error {
	if err := s.repo.ReverseByOrder(ctx, orderID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Начисления нет или оно зарезервировано пакетом выплаты:
			// в обоих случаях аннулировать нечего прямо сейчас.
			s.log.WithField("order_id", orderID).Warn("earnings: нечего аннулировать")
			return nil
		}
		return err
	}
	return nil
}

func (s *EarningService) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Earning, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByPro(ctx, proProfileID, limit, offset)
}
