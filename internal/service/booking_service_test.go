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
	"github.com/hogarya/hogarya-backend/internal/notify"
	"github.com/hogarya/hogarya-backend/internal/pkg/apperror"
	"github.com/hogarya/hogarya-backend/internal/provider"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, from, to string) error {
	args := m.Called(ctx, bookingID, from, to)
	return args.Error(0)
}

func (m *mockBookingRepo) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	args := m.Called(ctx, clientID, limit, offset)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingRepo) ListByPro(ctx context.Context, proProfileID uuid.UUID, limit, offset int) ([]models.Booking, error) {
	args := m.Called(ctx, proProfileID, limit, offset)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func newBookingFixture(adapter *mockAdapter) (*BookingService, *mockBookingRepo, *mockPaymentCreator) {
	bookings := new(mockBookingRepo)
	payments := new(mockPaymentCreator)
	svc := NewBookingService(bookings, payments, provider.NewRegistry(adapter),
		notify.NewLogNotifier(testLogger()), "UYU", testLogger())
	return svc, bookings, payments
}

func TestBookingService_Create_StartsInPendingPayment(t *testing.T) {
	adapter := new(mockAdapter)
	svc, bookings, payments := newBookingFixture(adapter)
	ctx := context.Background()

	bookings.On("Create", ctx, mock.AnythingOfType("*models.Booking")).Return(nil)
	adapter.On("CreatePaymentIntent", ctx, mock.AnythingOfType("uuid.UUID"), mock.Anything).
		Return(&provider.Handle{Reference: "mp-b1", CheckoutURL: "https://mp.test/checkout/mp-b1"}, nil)
	payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*models.Payment)
			assert.NotNil(t, p.BookingID)
			assert.Equal(t, int64(3000), p.AmountEstimated)
		}).Return(nil)

	booking, handle, err := svc.Create(ctx, CreateBookingInput{
		ClientID:        uuid.New(),
		ProProfileID:    uuid.New(),
		EstimatedAmount: 3000,
		ScheduledAt:     time.Now().Add(48 * time.Hour),
	}, "mercadopago")
	assert.NoError(t, err)
	assert.Equal(t, string(statemachine.BookingStatusPendingPayment), booking.Status)
	assert.Equal(t, "mp-b1", handle.Reference)
}

func TestBookingService_Create_InvalidAmount(t *testing.T) {
	svc, bookings, _ := newBookingFixture(new(mockAdapter))
	ctx := context.Background()

	_, _, err := svc.Create(ctx, CreateBookingInput{EstimatedAmount: 0}, "mercadopago")
	assert.True(t, apperror.IsValidation(err))
	bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBookingService_ProChain(t *testing.T) {
	svc, bookings, _ := newBookingFixture(new(mockAdapter))
	ctx := context.Background()
	proID := uuid.New()
	bookingID := uuid.New()
	actor := proActor(proID)

	steps := []struct {
		from, to statemachine.BookingStatus
		call     func() (*models.Booking, error)
	}{
		{statemachine.BookingStatusPending, statemachine.BookingStatusAccepted, func() (*models.Booking, error) { return svc.Accept(ctx, bookingID, actor) }},
		{statemachine.BookingStatusAccepted, statemachine.BookingStatusOnMyWay, func() (*models.Booking, error) { return svc.OnMyWay(ctx, bookingID, actor) }},
		{statemachine.BookingStatusOnMyWay, statemachine.BookingStatusArrived, func() (*models.Booking, error) { return svc.Arrived(ctx, bookingID, actor) }},
		{statemachine.BookingStatusArrived, statemachine.BookingStatusCompleted, func() (*models.Booking, error) { return svc.Complete(ctx, bookingID, actor) }},
	}

	for _, step := range steps {
		before := &models.Booking{ID: bookingID, ClientID: uuid.New(), ProProfileID: proID, Status: string(step.from)}
		after := &models.Booking{ID: bookingID, ClientID: before.ClientID, ProProfileID: proID, Status: string(step.to)}

		bookings.ExpectedCalls = nil
		bookings.On("GetByID", ctx, bookingID).Return(before, nil).Once()
		bookings.On("UpdateStatus", ctx, bookingID, string(step.from), string(step.to)).Return(nil)
		bookings.On("GetByID", ctx, bookingID).Return(after, nil)

		booking, err := step.call()
		assert.NoError(t, err)
		assert.Equal(t, string(step.to), booking.Status)
	}
}

func TestBookingService_ClientCannotAccept(t *testing.T) {
	svc, bookings, _ := newBookingFixture(new(mockAdapter))
	ctx := context.Background()
	clientID := uuid.New()
	bookingID := uuid.New()

	pending := &models.Booking{ID: bookingID, ClientID: clientID, ProProfileID: uuid.New(),
		Status: string(statemachine.BookingStatusPending)}
	bookings.On("GetByID", ctx, bookingID).Return(pending, nil)

	_, err := svc.Accept(ctx, bookingID, clientActor(clientID))
	assert.True(t, apperror.IsIllegalTransition(err))
}

func TestBookingService_NoSkipToArrived(t *testing.T) {
	svc, bookings, _ := newBookingFixture(new(mockAdapter))
	ctx := context.Background()
	proID := uuid.New()
	bookingID := uuid.New()

	accepted := &models.Booking{ID: bookingID, ClientID: uuid.New(), ProProfileID: proID,
		Status: string(statemachine.BookingStatusAccepted)}
	bookings.On("GetByID", ctx, bookingID).Return(accepted, nil)

	_, err := svc.Arrived(ctx, bookingID, proActor(proID))
	assert.True(t, apperror.IsIllegalTransition(err))
}

func TestBookingService_ForeignBooking_Forbidden(t *testing.T) {
	svc, bookings, _ := newBookingFixture(new(mockAdapter))
	ctx := context.Background()
	bookingID := uuid.New()

	pending := &models.Booking{ID: bookingID, ClientID: uuid.New(), ProProfileID: uuid.New(),
		Status: string(statemachine.BookingStatusPending)}
	bookings.On("GetByID", ctx, bookingID).Return(pending, nil)

	_, err := svc.Cancel(ctx, bookingID, clientActor(uuid.New()))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
