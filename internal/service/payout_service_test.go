package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
	"github.com/hogarya/hogarya-backend/internal/domain/valueobject"
	"github.com/hogarya/hogarya-backend/internal/models"
	"github.com/hogarya/hogarya-backend/internal/notify"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/provider"
	"github.com/hogarya/hogarya-backend/internal/repository"
	"github.com/hogarya/hogarya-backend/internal/repository/common"
)

type mockPayoutRepo struct {
	mock.Mock
}

func (m *mockPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) List(ctx context.Context, limit, offset int) ([]models.Payout, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) CreateForPro(ctx context.Context, proProfileID uuid.UUID, providerName, currency string) (*models.Payout, error) {
	args := m.Called(ctx, proProfileID, providerName, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) ReserveForRetry(ctx context.Context, payoutID uuid.UUID) (int64, error) {
	args := m.Called(ctx, payoutID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPayoutRepo) MarkSent(ctx context.Context, payoutID uuid.UUID, providerReference string) error {
	args := m.Called(ctx, payoutID, providerReference)
	return args.Error(0)
}

func (m *mockPayoutRepo) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error {
	args := m.Called(ctx, payoutID, reason)
	return args.Error(0)
}

func (m *mockPayoutRepo) MarkSettled(ctx context.Context, payoutID uuid.UUID) error {
	args := m.Called(ctx, payoutID)
	return args.Error(0)
}

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ProProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProProfile), args.Error(1)
}

type mockPayableLister struct {
	mock.Mock
}

func (m *mockPayableLister) ListPayableSummaries(ctx context.Context) ([]models.ProPayableSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ProPayableSummary), args.Error(1)
}

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) Name() string { return "mercadopago" }

func (m *mockAdapter) ParseWebhook(r *http.Request) (*provider.ParsedProviderEvent, error) {
	args := m.Called(r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ParsedProviderEvent), args.Error(1)
}

func (m *mockAdapter) CreatePaymentIntent(ctx context.Context, orderID uuid.UUID, amount valueobject.Money) (*provider.Handle, error) {
	args := m.Called(ctx, orderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Handle), args.Error(1)
}

func (m *mockAdapter) Capture(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

func (m *mockAdapter) Refund(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

func (m *mockAdapter) SendPayout(ctx context.Context, payoutID uuid.UUID, destination string, amount valueobject.Money) (string, error) {
	args := m.Called(ctx, payoutID, destination, amount)
	return args.String(0), args.Error(1)
}

func verifiedProfile(id uuid.UUID) *models.ProProfile {
	dest := "cbu-123"
	return &models.ProProfile{
		ID:                  id,
		UserID:              uuid.New(),
		DisplayName:         "Мастер",
		PayoutDestination:   &dest,
		DestinationVerified: true,
	}
}

func newPayoutFixture(adapter *mockAdapter) (*PayoutService, *mockPayoutRepo, *mockProfileRepo, *mockPayableLister) {
	payouts := new(mockPayoutRepo)
	profiles := new(mockProfileRepo)
	lister := new(mockPayableLister)
	svc := NewPayoutService(payouts, profiles, lister, provider.NewRegistry(adapter),
		notify.NewLogNotifier(testLogger()), "UYU", 3, time.Millisecond, testLogger())
	return svc, payouts, profiles, lister
}

func TestPayoutService_CreateForPro_Success(t *testing.T) {
	svc, payouts, profiles, _ := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()
	proID := uuid.New()

	expected := &models.Payout{ID: uuid.New(), ProProfileID: proID, Status: "created", Amount: 9000, Currency: "UYU"}
	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	payouts.On("CreateForPro", ctx, proID, "mercadopago", "UYU").Return(expected, nil)

	payout, err := svc.CreateForPro(ctx, proID, "mercadopago")
	assert.NoError(t, err)
	assert.Equal(t, expected, payout)
}

func TestPayoutService_CreateForPro_IncompleteProfile(t *testing.T) {
	svc, payouts, profiles, _ := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()
	proID := uuid.New()

	unverified := verifiedProfile(proID)
	unverified.DestinationVerified = false
	profiles.On("GetByID", ctx, proID).Return(unverified, nil)

	_, err := svc.CreateForPro(ctx, proID, "mercadopago")
	assert.ErrorIs(t, err, apperror.ErrIncompleteProfile)
	payouts.AssertNotCalled(t, "CreateForPro", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPayoutService_CreateForPro_NothingPayable(t *testing.T) {
	svc, payouts, profiles, _ := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()
	proID := uuid.New()

	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	payouts.On("CreateForPro", ctx, proID, "mercadopago", "UYU").Return(nil, repository.ErrNoPayableEarnings)

	_, err := svc.CreateForPro(ctx, proID, "mercadopago")
	assert.ErrorIs(t, err, apperror.ErrNoPayableEarnings)
}

func TestPayoutService_Send_Success(t *testing.T) {
	adapter := new(mockAdapter)
	svc, payouts, profiles, _ := newPayoutFixture(adapter)
	ctx := context.Background()
	proID := uuid.New()
	payoutID := uuid.New()

	created := &models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusCreated), Amount: 9000, Currency: "UYU"}
	sent := &models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusSent), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(created, nil).Once()
	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	adapter.On("SendPayout", ctx, payoutID, "cbu-123", valueobject.MustMoney(9000, "UYU")).Return("mp-payout-1", nil)
	payouts.On("MarkSent", ctx, payoutID, "mp-payout-1").Return(nil)
	payouts.On("GetByID", ctx, payoutID).Return(sent, nil)

	payout, err := svc.Send(ctx, payoutID)
	assert.NoError(t, err)
	assert.Equal(t, string(statemachine.PayoutStatusSent), payout.Status)
	adapter.AssertNumberOfCalls(t, "SendPayout", 1)
}

func TestPayoutService_Send_RetriesUnavailableThenSucceeds(t *testing.T) {
	adapter := new(mockAdapter)
	svc, payouts, profiles, _ := newPayoutFixture(adapter)
	ctx := context.Background()
	proID := uuid.New()
	payoutID := uuid.New()

	created := &models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusCreated), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(created, nil)
	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	adapter.On("SendPayout", ctx, payoutID, "cbu-123", mock.Anything).
		Return("", errors.New("connection refused")).Twice()
	adapter.On("SendPayout", ctx, payoutID, "cbu-123", mock.Anything).
		Return("mp-payout-1", nil).Once()
	payouts.On("MarkSent", ctx, payoutID, "mp-payout-1").Return(nil)

	_, err := svc.Send(ctx, payoutID)
	assert.NoError(t, err)
	adapter.AssertNumberOfCalls(t, "SendPayout", 3)
}

func TestPayoutService_Send_ExhaustedAttempts_MarksFailed(t *testing.T) {
	adapter := new(mockAdapter)
	svc, payouts, profiles, _ := newPayoutFixture(adapter)
	ctx := context.Background()
	proID := uuid.New()
	payoutID := uuid.New()

	created := &models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusCreated), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(created, nil)
	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	adapter.On("SendPayout", ctx, payoutID, "cbu-123", mock.Anything).
		Return("", errors.New("connection refused"))
	payouts.On("MarkFailed", ctx, payoutID, mock.AnythingOfType("string")).Return(nil)

	_, err := svc.Send(ctx, payoutID)
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrCodeProviderUnavailable))
	adapter.AssertNumberOfCalls(t, "SendPayout", 3)
	payouts.AssertCalled(t, "MarkFailed", ctx, payoutID, mock.AnythingOfType("string"))
}

func TestPayoutService_Send_Rejected_NoRetry(t *testing.T) {
	adapter := new(mockAdapter)
	svc, payouts, profiles, _ := newPayoutFixture(adapter)
	ctx := context.Background()
	proID := uuid.New()
	payoutID := uuid.New()

	created := &models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusCreated), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(created, nil)
	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	adapter.On("SendPayout", ctx, payoutID, "cbu-123", mock.Anything).Return("", provider.ErrRejected)
	payouts.On("MarkFailed", ctx, payoutID, mock.AnythingOfType("string")).Return(nil)

	_, err := svc.Send(ctx, payoutID)
	assert.Error(t, err)
	adapter.AssertNumberOfCalls(t, "SendPayout", 1)
}

func TestPayoutService_Send_RetryFailed_ReservesAgain(t *testing.T) {
	adapter := new(mockAdapter)
	svc, payouts, profiles, _ := newPayoutFixture(adapter)
	ctx := context.Background()
	proID := uuid.New()
	payoutID := uuid.New()

	failed := &models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusFailed), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(failed, nil)
	payouts.On("ReserveForRetry", ctx, payoutID).Return(int64(9000), nil)
	profiles.On("GetByID", ctx, proID).Return(verifiedProfile(proID), nil)
	adapter.On("SendPayout", ctx, payoutID, "cbu-123", mock.Anything).Return("mp-payout-2", nil)
	payouts.On("MarkSent", ctx, payoutID, "mp-payout-2").Return(nil)

	_, err := svc.Send(ctx, payoutID)
	assert.NoError(t, err)
	payouts.AssertCalled(t, "ReserveForRetry", ctx, payoutID)
}

func TestPayoutService_Send_RetryAmountMismatch_Conflict(t *testing.T) {
	adapter := new(mockAdapter)
	svc, payouts, _, _ := newPayoutFixture(adapter)
	ctx := context.Background()
	payoutID := uuid.New()

	failed := &models.Payout{ID: payoutID, ProProfileID: uuid.New(), Provider: "mercadopago",
		Status: string(statemachine.PayoutStatusFailed), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(failed, nil)
	// часть начислений уже забрал более новый пакет
	payouts.On("ReserveForRetry", ctx, payoutID).Return(int64(4000), nil)
	payouts.On("MarkFailed", ctx, payoutID, mock.AnythingOfType("string")).Return(nil)

	_, err := svc.Send(ctx, payoutID)
	assert.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ErrCodeConflict))
	adapter.AssertNotCalled(t, "SendPayout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPayoutService_Send_AlreadySent_IllegalTransition(t *testing.T) {
	svc, payouts, _, _ := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()
	payoutID := uuid.New()

	sent := &models.Payout{ID: payoutID, Status: string(statemachine.PayoutStatusSent)}
	payouts.On("GetByID", ctx, payoutID).Return(sent, nil)

	_, err := svc.Send(ctx, payoutID)
	assert.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err))
}

func TestPayoutService_Settle(t *testing.T) {
	svc, payouts, _, _ := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()
	payoutID := uuid.New()

	sent := &models.Payout{ID: payoutID, Status: string(statemachine.PayoutStatusSent), Amount: 9000, Currency: "UYU"}
	settled := &models.Payout{ID: payoutID, Status: string(statemachine.PayoutStatusSettled), Amount: 9000, Currency: "UYU"}

	payouts.On("GetByID", ctx, payoutID).Return(sent, nil).Once()
	payouts.On("MarkSettled", ctx, payoutID).Return(nil)
	payouts.On("GetByID", ctx, payoutID).Return(settled, nil)

	payout, err := svc.Settle(ctx, payoutID)
	assert.NoError(t, err)
	assert.Equal(t, string(statemachine.PayoutStatusSettled), payout.Status)
}

func TestPayoutService_Settle_FromCreated_Illegal(t *testing.T) {
	svc, payouts, _, _ := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()
	payoutID := uuid.New()

	created := &models.Payout{ID: payoutID, Status: string(statemachine.PayoutStatusCreated)}
	payouts.On("GetByID", ctx, payoutID).Return(created, nil)

	_, err := svc.Settle(ctx, payoutID)
	assert.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err))
	payouts.AssertNotCalled(t, "MarkSettled", mock.Anything, mock.Anything)
}

func TestPayoutService_ListPayablePros(t *testing.T) {
	svc, _, _, lister := newPayoutFixture(new(mockAdapter))
	ctx := context.Background()

	expected := []models.ProPayableSummary{{ProProfileID: uuid.New(), TotalNetAmount: 9000, EarningsCount: 2}}
	lister.On("ListPayableSummaries", ctx).Return(expected, nil)

	pros, err := svc.ListPayablePros(ctx)
	assert.NoError(t, err)
	assert.Equal(t, expected, pros)
}

// --- конкурентное создание выплаты: резервирование не считает дважды ---

type fakePayableLedger struct {
	mu       sync.Mutex
	payable  map[uuid.UUID]int64 // earningID -> net
	reserved map[uuid.UUID]uuid.UUID
	payouts  map[uuid.UUID]*models.Payout
}

func newFakePayableLedger(nets ...int64) *fakePayableLedger {
	f := &fakePayableLedger{
		payable:  make(map[uuid.UUID]int64),
		reserved: make(map[uuid.UUID]uuid.UUID),
		payouts:  make(map[uuid.UUID]*models.Payout),
	}
	for _, n := range nets {
		f.payable[uuid.New()] = n
	}
	return f
}

func (f *fakePayableLedger) GetByID(_ context.Context, id uuid.UUID) (*models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[id]
	if !ok {
		return nil, apperror.ErrPayoutNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayableLedger) List(context.Context, int, int) ([]models.Payout, error) {
	return nil, nil
}

func (f *fakePayableLedger) CreateForPro(_ context.Context, proProfileID uuid.UUID, providerName, currency string) (*models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payoutID := uuid.New()
	var sum int64
	for id, net := range f.payable {
		sum += net
		f.reserved[id] = payoutID
		delete(f.payable, id)
	}
	if sum == 0 {
		return nil, repository.ErrNoPayableEarnings
	}
	p := &models.Payout{ID: payoutID, ProProfileID: proProfileID, Provider: providerName,
		Status: string(statemachine.PayoutStatusCreated), Amount: sum, Currency: currency}
	f.payouts[payoutID] = p
	return p, nil
}

func (f *fakePayableLedger) ReserveForRetry(context.Context, uuid.UUID) (int64, error) { return 0, nil }
func (f *fakePayableLedger) MarkSent(context.Context, uuid.UUID, string) error         { return nil }
func (f *fakePayableLedger) MarkFailed(context.Context, uuid.UUID, string) error       { return nil }
func (f *fakePayableLedger) MarkSettled(context.Context, uuid.UUID) error              { return nil }

func TestPayoutService_ConcurrentCreateForPro_NoDoubleCount(t *testing.T) {
	ledger := newFakePayableLedger(3000, 4000, 2000)
	profiles := new(mockProfileRepo)
	proID := uuid.New()
	profiles.On("GetByID", mock.Anything, proID).Return(verifiedProfile(proID), nil)

	svc := NewPayoutService(ledger, profiles, new(mockPayableLister), provider.NewRegistry(new(mockAdapter)),
		notify.NewLogNotifier(testLogger()), "UYU", 1, 0, testLogger())

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*models.Payout, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			payout, err := svc.CreateForPro(context.Background(), proID, "mercadopago")
			if err == nil {
				results[i] = payout
			}
		}(i)
	}
	wg.Wait()

	var total int64
	created := 0
	for _, p := range results {
		if p != nil {
			created++
			total += p.Amount
		}
	}
	// начисления достаются ровно одной выплате, сумма не задваивается
	assert.Equal(t, 1, created)
	assert.Equal(t, int64(9000), total)
}

// --- повторный провал выплаты: начисления не застревают в reserved ---

type retryLedgerEarning struct {
	status   string
	payoutID uuid.UUID
	net      int64
}

// fakeRetryLedger зеркалит SQL контракты репозитория выплат: резервирование
// по payout_id + status, статусные фильтры MarkSent/MarkFailed, откат всей
// записи при 0 затронутых строк.
type fakeRetryLedger struct {
	mu       sync.Mutex
	payout   models.Payout
	earnings []*retryLedgerEarning
}

func (f *fakeRetryLedger) GetByID(_ context.Context, id uuid.UUID) (*models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payout.ID != id {
		return nil, apperror.ErrPayoutNotFound
	}
	cp := f.payout
	return &cp, nil
}

func (f *fakeRetryLedger) List(context.Context, int, int) ([]models.Payout, error) {
	return nil, nil
}

func (f *fakeRetryLedger) CreateForPro(context.Context, uuid.UUID, string, string) (*models.Payout, error) {
	return nil, repository.ErrNoPayableEarnings
}

func (f *fakeRetryLedger) ReserveForRetry(_ context.Context, payoutID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, e := range f.earnings {
		if e.payoutID == payoutID && e.status == string(statemachine.EarningStatusPayable) {
			e.status = string(statemachine.EarningStatusReserved)
			total += e.net
		}
	}
	if total == 0 {
		return 0, repository.ErrNoPayableEarnings
	}
	return total, nil
}

func (f *fakeRetryLedger) MarkSent(_ context.Context, payoutID uuid.UUID, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.payout.Status {
	case string(statemachine.PayoutStatusCreated), string(statemachine.PayoutStatusFailed):
	default:
		return common.ErrStaleState
	}
	f.payout.Status = string(statemachine.PayoutStatusSent)
	f.payout.ProviderReference = &ref
	for _, e := range f.earnings {
		if e.payoutID == payoutID && e.status == string(statemachine.EarningStatusReserved) {
			e.status = string(statemachine.EarningStatusPaid)
		}
	}
	return nil
}

func (f *fakeRetryLedger) MarkFailed(_ context.Context, payoutID uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.payout.Status {
	case string(statemachine.PayoutStatusCreated), string(statemachine.PayoutStatusSent),
		string(statemachine.PayoutStatusFailed):
	default:
		// как в SQL: 0 строк откатывает и возврат начислений
		return common.ErrStaleState
	}
	f.payout.Status = string(statemachine.PayoutStatusFailed)
	f.payout.FailureReason = &reason
	for _, e := range f.earnings {
		if e.payoutID == payoutID && e.status == string(statemachine.EarningStatusReserved) {
			e.status = string(statemachine.EarningStatusPayable)
		}
	}
	return nil
}

func (f *fakeRetryLedger) MarkSettled(context.Context, uuid.UUID) error { return nil }

func TestPayoutService_Send_RetryFailsAgain_EarningsRevertToPayable(t *testing.T) {
	proID := uuid.New()
	payoutID := uuid.New()
	ledger := &fakeRetryLedger{
		payout: models.Payout{ID: payoutID, ProProfileID: proID, Provider: "mercadopago",
			Status: string(statemachine.PayoutStatusFailed), Amount: 9000, Currency: "UYU"},
		earnings: []*retryLedgerEarning{
			{status: string(statemachine.EarningStatusPayable), payoutID: payoutID, net: 4000},
			{status: string(statemachine.EarningStatusPayable), payoutID: payoutID, net: 5000},
		},
	}
	profiles := new(mockProfileRepo)
	profiles.On("GetByID", mock.Anything, proID).Return(verifiedProfile(proID), nil)
	adapter := new(mockAdapter)
	adapter.On("SendPayout", mock.Anything, payoutID, "cbu-123", mock.Anything).
		Return("", provider.ErrRejected).Once()
	adapter.On("SendPayout", mock.Anything, payoutID, "cbu-123", mock.Anything).
		Return("mp-payout-3", nil).Once()

	svc := NewPayoutService(ledger, profiles, new(mockPayableLister), provider.NewRegistry(adapter),
		notify.NewLogNotifier(testLogger()), "UYU", 1, 0, testLogger())

	// повторная отправка проваливается снова: начисления возвращаются в
	// payable, а не застревают в reserved
	_, err := svc.Send(context.Background(), payoutID)
	assert.Error(t, err)
	assert.Equal(t, string(statemachine.PayoutStatusFailed), ledger.payout.Status)
	for _, e := range ledger.earnings {
		assert.Equal(t, string(statemachine.EarningStatusPayable), e.status)
	}

	// та же строка остаётся пригодной для следующей попытки
	payout, err := svc.Send(context.Background(), payoutID)
	assert.NoError(t, err)
	assert.Equal(t, string(statemachine.PayoutStatusSent), payout.Status)
	for _, e := range ledger.earnings {
		assert.Equal(t, string(statemachine.EarningStatusPaid), e.status)
	}
}
