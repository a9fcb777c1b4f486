package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localpro/marketplace/internal/auth"
	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/repository"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

func newBookingService(bookings *mockBookingRepository, services *mockServiceRepository) *BookingService {
	return NewBookingService(bookings, services, newTestProducer(), newTestLogger())
}

func activeService() *domain.Service {
	return &domain.Service{
		ID:         "service-001",
		ProviderID: "provider-001",
		Title:      "Deep Home Cleaning",
		Price:      15000,
		PriceUnit:  domain.PriceUnitFixed,
		Duration:   120,
		City:       "Springfield",
		IsActive:   true,
	}
}

var (
	customerActor = auth.Actor{ID: "customer-001", Email: "cust@example.com", Role: domain.RoleCustomer}
	providerActor = auth.Actor{ID: "provider-001", Email: "prov@example.com", Role: domain.RoleProvider}
)

func validBookingInput() CreateBookingInput {
	return CreateBookingInput{
		ServiceID: "service-001",
		Date:      mustDate("2026-09-15"),
		StartTime: "09:00",
		EndTime:   "11:00",
		Notes:     "Gate code 4411",
	}
}

// --- CreateBooking Tests ---

func TestCreateBooking_Success(t *testing.T) {
	bookings := new(mockBookingRepository)
	services := new(mockServiceRepository)
	svc := newBookingService(bookings, services)
	ctx := context.Background()

	services.On("GetByID", ctx, "service-001").Return(activeService(), nil)
	bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
	services.On("IncrementTotalBookings", ctx, "service-001").Return(nil)

	booking, err := svc.CreateBooking(ctx, customerActor, validBookingInput())

	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "service-001", booking.ServiceID)
	assert.Equal(t, "provider-001", booking.ProviderID)
	assert.Equal(t, "customer-001", booking.CustomerID)
	assert.Equal(t, domain.BookingStatusPending, booking.Status)
	assert.Equal(t, int64(15000), booking.TotalPrice)
	assert.Equal(t, "09:00", booking.StartTime)
	assert.Equal(t, "Gate code 4411", booking.CustomerNotes)
	assert.NotZero(t, booking.CreatedAt)

	bookings.AssertExpectations(t)
	services.AssertExpectations(t)
}

func TestCreateBooking_ProviderForbidden(t *testing.T) {
	svc := newBookingService(new(mockBookingRepository), new(mockServiceRepository))

	booking, err := svc.CreateBooking(context.Background(), providerActor, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCreateBooking_InvalidTimes(t *testing.T) {
	svc := newBookingService(new(mockBookingRepository), new(mockServiceRepository))
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end string
	}{
		{"bad start format", "9am", "11:00"},
		{"bad end format", "09:00", "eleven"},
		{"end before start", "11:00", "09:00"},
		{"end equals start", "09:00", "09:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validBookingInput()
			input.StartTime = tt.start
			input.EndTime = tt.end

			booking, err := svc.CreateBooking(ctx, customerActor, input)

			assert.Nil(t, booking)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestCreateBooking_ServiceNotFound(t *testing.T) {
	bookings := new(mockBookingRepository)
	services := new(mockServiceRepository)
	svc := newBookingService(bookings, services)
	ctx := context.Background()

	services.On("GetByID", ctx, "service-001").Return(nil, apperrors.ErrNotFound)

	booking, err := svc.CreateBooking(ctx, customerActor, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	services.AssertExpectations(t)
}

func TestCreateBooking_InactiveServiceHidden(t *testing.T) {
	bookings := new(mockBookingRepository)
	services := new(mockServiceRepository)
	svc := newBookingService(bookings, services)
	ctx := context.Background()

	inactive := activeService()
	inactive.IsActive = false
	services.On("GetByID", ctx, "service-001").Return(inactive, nil)

	booking, err := svc.CreateBooking(ctx, customerActor, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	services.AssertExpectations(t)
}

func TestCreateBooking_OwnService(t *testing.T) {
	bookings := new(mockBookingRepository)
	services := new(mockServiceRepository)
	svc := newBookingService(bookings, services)
	ctx := context.Background()

	owned := activeService()
	owned.ProviderID = customerActor.ID
	services.On("GetByID", ctx, "service-001").Return(owned, nil)

	booking, err := svc.CreateBooking(ctx, customerActor, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	services.AssertExpectations(t)
}

func TestCreateBooking_SlotTaken(t *testing.T) {
	bookings := new(mockBookingRepository)
	services := new(mockServiceRepository)
	svc := newBookingService(bookings, services)
	ctx := context.Background()

	services.On("GetByID", ctx, "service-001").Return(activeService(), nil)
	bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).
		Return(apperrors.SlotUnavailable("this time slot is already booked"))

	booking, err := svc.CreateBooking(ctx, customerActor, validBookingInput())

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrSlotUnavailable)

	bookings.AssertExpectations(t)
	services.AssertExpectations(t)
}

func TestCreateBooking_CounterFailureDoesNotFail(t *testing.T) {
	bookings := new(mockBookingRepository)
	services := new(mockServiceRepository)
	svc := newBookingService(bookings, services)
	ctx := context.Background()

	services.On("GetByID", ctx, "service-001").Return(activeService(), nil)
	bookings.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).Return(nil)
	services.On("IncrementTotalBookings", ctx, "service-001").Return(apperrors.ErrInternal)

	booking, err := svc.CreateBooking(ctx, customerActor, validBookingInput())

	require.NoError(t, err)
	assert.NotNil(t, booking)

	bookings.AssertExpectations(t)
	services.AssertExpectations(t)
}

// --- GetBooking Tests ---

func TestGetBooking_ParticipantsOnly(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ServiceID:  "service-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusPending,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)

	got, err := svc.GetBooking(ctx, customerActor, "booking-001")
	require.NoError(t, err)
	assert.Equal(t, existing, got)

	got, err = svc.GetBooking(ctx, providerActor, "booking-001")
	require.NoError(t, err)
	assert.Equal(t, existing, got)

	stranger := auth.Actor{ID: "customer-999", Role: domain.RoleCustomer}
	got, err = svc.GetBooking(ctx, stranger, "booking-001")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	bookings.AssertExpectations(t)
}

func TestGetBooking_NotFound(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	bookings.On("GetByID", ctx, "nonexistent").Return(nil, apperrors.ErrNotFound)

	got, err := svc.GetBooking(ctx, customerActor, "nonexistent")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	bookings.AssertExpectations(t)
}

// --- ListMyBookings Tests ---

func TestListMyBookings_CustomerScope(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	expectedFilter := repository.BookingFilter{
		CustomerID: strPtr("customer-001"),
		Page:       1,
		PerPage:    20,
	}
	bookings.On("List", ctx, expectedFilter).Return([]domain.Booking{{ID: "booking-001"}}, 1, nil)

	list, total, err := svc.ListMyBookings(ctx, customerActor, nil, 0, 0)

	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, total)

	bookings.AssertExpectations(t)
}

func TestListMyBookings_ProviderScopeWithStatus(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	status := domain.BookingStatusConfirmed
	expectedFilter := repository.BookingFilter{
		ProviderID: strPtr("provider-001"),
		Status:     &status,
		Page:       2,
		PerPage:    10,
	}
	bookings.On("List", ctx, expectedFilter).Return([]domain.Booking{}, 0, nil)

	_, _, err := svc.ListMyBookings(ctx, providerActor, &status, 2, 10)

	require.NoError(t, err)
	bookings.AssertExpectations(t)
}

func TestListMyBookings_InvalidStatus(t *testing.T) {
	svc := newBookingService(new(mockBookingRepository), new(mockServiceRepository))

	bad := "shipped"
	_, _, err := svc.ListMyBookings(context.Background(), customerActor, &bad, 1, 20)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- UpdateBookingStatus Tests ---

func TestUpdateBookingStatus_Confirm(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusPending,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)
	bookings.On("UpdateStatus", ctx, "booking-001", domain.BookingStatusPending, domain.BookingStatusConfirmed).Return(nil)

	booking, err := svc.UpdateBookingStatus(ctx, providerActor, "booking-001", domain.BookingStatusConfirmed)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	assert.Nil(t, booking.CompletedAt)

	bookings.AssertExpectations(t)
}

func TestUpdateBookingStatus_CompleteStampsCompletedAt(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusConfirmed,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)
	bookings.On("UpdateStatus", ctx, "booking-001", domain.BookingStatusConfirmed, domain.BookingStatusCompleted).Return(nil)

	booking, err := svc.UpdateBookingStatus(ctx, providerActor, "booking-001", domain.BookingStatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, booking.Status)
	require.NotNil(t, booking.CompletedAt)

	bookings.AssertExpectations(t)
}

func TestUpdateBookingStatus_LostRace(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	// Another request moved the booking between our read and our write.
	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusConfirmed,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)
	bookings.On("UpdateStatus", ctx, "booking-001", domain.BookingStatusConfirmed, domain.BookingStatusCompleted).
		Return(apperrors.Conflict("booking was modified concurrently"))

	booking, err := svc.UpdateBookingStatus(ctx, providerActor, "booking-001", domain.BookingStatusCompleted)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	bookings.AssertExpectations(t)
}

func TestUpdateBookingStatus_CustomerForbidden(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusPending,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)

	booking, err := svc.UpdateBookingStatus(ctx, customerActor, "booking-001", domain.BookingStatusConfirmed)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	bookings.AssertExpectations(t)
}

func TestUpdateBookingStatus_TerminalState(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusCompleted,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)

	booking, err := svc.UpdateBookingStatus(ctx, providerActor, "booking-001", domain.BookingStatusConfirmed)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	bookings.AssertExpectations(t)
}

func TestUpdateBookingStatus_CancelledRoutedToCancel(t *testing.T) {
	svc := newBookingService(new(mockBookingRepository), new(mockServiceRepository))

	booking, err := svc.UpdateBookingStatus(context.Background(), providerActor, "booking-001", domain.BookingStatusCancelled)

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateBookingStatus_UnknownStatus(t *testing.T) {
	svc := newBookingService(new(mockBookingRepository), new(mockServiceRepository))

	booking, err := svc.UpdateBookingStatus(context.Background(), providerActor, "booking-001", "archived")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- CancelBooking Tests ---

func TestCancelBooking_ByCustomer(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusPending,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)
	bookings.On("Cancel", ctx, "booking-001", domain.BookingStatusPending, domain.RoleCustomer, "found someone cheaper").Return(nil)

	booking, err := svc.CancelBooking(ctx, customerActor, "booking-001", "found someone cheaper")

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, booking.Status)
	assert.Equal(t, domain.RoleCustomer, booking.CancelledBy)
	assert.Equal(t, "found someone cheaper", booking.CancellationReason)
	require.NotNil(t, booking.CancelledAt)

	bookings.AssertExpectations(t)
}

func TestCancelBooking_ByProvider(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusConfirmed,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)
	bookings.On("Cancel", ctx, "booking-001", domain.BookingStatusConfirmed, domain.RoleProvider, "double booked").Return(nil)

	booking, err := svc.CancelBooking(ctx, providerActor, "booking-001", "double booked")

	require.NoError(t, err)
	assert.Equal(t, domain.RoleProvider, booking.CancelledBy)

	bookings.AssertExpectations(t)
}

func TestCancelBooking_StrangerForbidden(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusPending,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)

	stranger := auth.Actor{ID: "provider-999", Role: domain.RoleProvider}
	booking, err := svc.CancelBooking(ctx, stranger, "booking-001", "nope")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	bookings.AssertExpectations(t)
}

func TestCancelBooking_AlreadyCompleted(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusCompleted,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)

	booking, err := svc.CancelBooking(ctx, customerActor, "booking-001", "too late")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	bookings.AssertExpectations(t)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	bookings := new(mockBookingRepository)
	svc := newBookingService(bookings, new(mockServiceRepository))
	ctx := context.Background()

	existing := &domain.Booking{
		ID:         "booking-001",
		ProviderID: "provider-001",
		CustomerID: "customer-001",
		Status:     domain.BookingStatusCancelled,
	}
	bookings.On("GetByID", ctx, "booking-001").Return(existing, nil)

	booking, err := svc.CancelBooking(ctx, customerActor, "booking-001", "again")

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	bookings.AssertExpectations(t)
}
