package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

func newEarningFixture(bps int64, hold time.Duration) (*EarningService, *mockEarningRepo) {
	repo := new(mockEarningRepo)
	svc := NewEarningService(repo, func(uuid.UUID) int64 { return bps }, hold, testLogger())
	return svc, repo
}

func paidOrder(proID uuid.UUID, total int64) *models.Order {
	return &models.Order{
		ID:           uuid.New(),
		ClientID:     uuid.New(),
		ProProfileID: &proID,
		CategoryID:   uuid.New(),
		Status:       string(statemachine.OrderStatusPaid),
		TotalAmount:  total,
		Currency:     "UYU",
	}
}

func TestEarningService_BuildForPaidOrder_SplitsFee(t *testing.T) {
	svc, _ := newEarningFixture(1500, 72*time.Hour)
	proID := uuid.New()

	earning, err := svc.BuildForPaidOrder(paidOrder(proID, 10000))
	assert.NoError(t, err)
	assert.Equal(t, proID, earning.ProProfileID)
	assert.Equal(t, int64(10000), earning.GrossAmount)
	assert.Equal(t, int64(1500), earning.PlatformFeeAmount)
	assert.Equal(t, int64(8500), earning.NetAmount)
	assert.Equal(t, string(statemachine.EarningStatusPending), earning.Status)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), earning.AvailableAt, time.Minute)
}

func TestEarningService_BuildForPaidOrder_FeeTruncates(t *testing.T) {
	svc, _ := newEarningFixture(333, 0)

	earning, err := svc.BuildForPaidOrder(paidOrder(uuid.New(), 9999))
	assert.NoError(t, err)
	// 9999 * 333 / 10000 = 332.96 -> 332, сумма сходится без потерь
	assert.Equal(t, int64(332), earning.PlatformFeeAmount)
	assert.Equal(t, earning.GrossAmount, earning.PlatformFeeAmount+earning.NetAmount)
}

func TestEarningService_BuildForPaidOrder_NoPro(t *testing.T) {
	svc, _ := newEarningFixture(1000, 0)

	order := paidOrder(uuid.New(), 10000)
	order.ProProfileID = nil

	_, err := svc.BuildForPaidOrder(order)
	assert.Error(t, err)
}

func TestEarningService_CreateForPaidOrder_Duplicate(t *testing.T) {
	svc, repo := newEarningFixture(1000, 0)
	ctx := context.Background()

	repo.On("Insert", ctx, mock.AnythingOfType("*models.Earning")).Return(common.ErrAlreadyExists)

	_, err := svc.CreateForPaidOrder(ctx, paidOrder(uuid.New(), 10000))
	assert.True(t, apperror.IsDuplicateEarning(err))
}

func TestEarningService_ReleaseAvailable(t *testing.T) {
	svc, repo := newEarningFixture(1000, 0)
	ctx := context.Background()

	repo.On("ReleaseAvailable", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	released, err := svc.ReleaseAvailable(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), released)
}

func TestEarningService_ReverseForOrder_MissingEarningIgnored(t *testing.T) {
	svc, repo := newEarningFixture(1000, 0)
	ctx := context.Background()
	orderID := uuid.New()

	// возврат по заказу, до начисления так и не дошедшему
	repo.On("ReverseByOrder", ctx, orderID).Return(common.ErrNotFound)

	err := svc.ReverseForOrder(ctx, orderID)
	assert.NoError(t, err)
}
