package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localpro/marketplace/internal/auth"
	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/event"
	"github.com/localpro/marketplace/internal/repository"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// BookingService implements the business logic for the booking lifecycle.
type BookingService struct {
	bookingRepo repository.BookingRepository
	serviceRepo repository.ServiceRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewBookingService creates a new booking service.
func NewBookingService(
	bookingRepo repository.BookingRepository,
	serviceRepo repository.ServiceRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		producer:    producer,
		logger:      logger,
	}
}

// CreateBookingInput holds the parameters for creating a booking.
type CreateBookingInput struct {
	ServiceID string
	Date      time.Time
	StartTime string
	EndTime   string
	Notes     string
}

// CreateBooking books a service slot for the acting customer. The slot is
// claimed at insert time: two concurrent requests for the same service, date,
// and start time cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, actor auth.Actor, input CreateBookingInput) (*domain.Booking, error) {
	if err := auth.RequireRole(actor, domain.RoleCustomer); err != nil {
		return nil, err
	}

	if input.ServiceID == "" {
		return nil, apperrors.InvalidInput("service_id is required")
	}
	if input.Date.IsZero() {
		return nil, apperrors.InvalidInput("date is required")
	}
	start, err := parseClock(input.StartTime)
	if err != nil {
		return nil, apperrors.InvalidInput("start_time must be in HH:MM format")
	}
	end, err := parseClock(input.EndTime)
	if err != nil {
		return nil, apperrors.InvalidInput("end_time must be in HH:MM format")
	}
	if !end.After(start) {
		return nil, apperrors.InvalidInput("end_time must be after start_time")
	}

	svc, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("get service for booking: %w", err)
	}
	if !svc.IsActive {
		return nil, apperrors.NotFound("service", input.ServiceID)
	}
	if svc.ProviderID == actor.ID {
		return nil, apperrors.InvalidInput("you cannot book your own service")
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:            uuid.New().String(),
		ServiceID:     svc.ID,
		ProviderID:    svc.ProviderID,
		CustomerID:    actor.ID,
		Date:          input.Date,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime,
		Status:        domain.BookingStatusPending,
		TotalPrice:    svc.Price,
		CustomerNotes: input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// The counter is advisory; a failed bump must not undo the booking.
	if err := s.serviceRepo.IncrementTotalBookings(ctx, svc.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to increment service booking counter",
			slog.String("service_id", svc.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishBookingCreated(ctx, booking); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish booking.created event",
			slog.String("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "booking created",
		slog.String("booking_id", booking.ID),
		slog.String("service_id", booking.ServiceID),
		slog.String("customer_id", booking.CustomerID),
	)

	return booking, nil
}

// GetBooking retrieves a booking, visible only to its customer or provider.
func (s *BookingService) GetBooking(ctx context.Context, actor auth.Actor, id string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	if err := auth.CanViewBooking(actor, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// ListMyBookings returns the actor's bookings, scoped by role: customers see
// bookings they placed, providers see bookings against their services.
func (s *BookingService) ListMyBookings(ctx context.Context, actor auth.Actor, status *string, page, perPage int) ([]domain.Booking, int, error) {
	if status != nil && !domain.IsValidBookingStatus(*status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			*status, strings.Join(domain.ValidBookingStatuses(), ", ")))
	}

	filter := repository.BookingFilter{
		Status:  status,
		Page:    page,
		PerPage: perPage,
	}
	switch actor.Role {
	case domain.RoleProvider:
		filter.ProviderID = &actor.ID
	default:
		filter.CustomerID = &actor.ID
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	bookings, total, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, total, nil
}

// UpdateBookingStatus moves a booking to confirmed or completed. Only the
// provider who owns the booked service may drive the lifecycle; cancellation
// goes through CancelBooking so the cancelling party is recorded.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor auth.Actor, id, newStatus string) (*domain.Booking, error) {
	if !domain.IsValidBookingStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
			newStatus, strings.Join(domain.ValidBookingStatuses(), ", ")))
	}
	if newStatus == domain.BookingStatusCancelled {
		return nil, apperrors.InvalidInput("use the cancel operation to cancel a booking")
	}

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking for status update: %w", err)
	}

	if err := auth.CanUpdateBookingStatus(actor, booking); err != nil {
		return nil, err
	}

	if !booking.CanTransitionTo(newStatus) {
		return nil, apperrors.InvalidTransition(booking.Status, newStatus)
	}

	oldStatus := booking.Status

	if err := s.bookingRepo.UpdateStatus(ctx, id, oldStatus, newStatus); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	booking.Status = newStatus
	now := time.Now().UTC()
	booking.UpdatedAt = now
	if newStatus == domain.BookingStatusCompleted {
		booking.CompletedAt = &now
	}

	if err := s.producer.PublishBookingStatusChanged(ctx, booking, oldStatus, newStatus); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish booking.status_changed event",
			slog.String("booking_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "booking status updated",
		slog.String("booking_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	return booking, nil
}

// CancelBooking cancels a booking on behalf of either participant, recording
// which side cancelled and why.
func (s *BookingService) CancelBooking(ctx context.Context, actor auth.Actor, id, reason string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking for cancel: %w", err)
	}

	if err := auth.CanCancelBooking(actor, booking); err != nil {
		return nil, err
	}

	if !booking.CanTransitionTo(domain.BookingStatusCancelled) {
		return nil, apperrors.InvalidTransition(booking.Status, domain.BookingStatusCancelled)
	}

	if err := s.bookingRepo.Cancel(ctx, id, booking.Status, actor.Role, reason); err != nil {
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	now := time.Now().UTC()
	booking.Status = domain.BookingStatusCancelled
	booking.CancelledBy = actor.Role
	booking.CancellationReason = reason
	booking.CancelledAt = &now
	booking.UpdatedAt = now

	if err := s.producer.PublishBookingCancelled(ctx, booking, actor.Role, reason); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish booking.cancelled event",
			slog.String("booking_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "booking cancelled",
		slog.String("booking_id", id),
		slog.String("cancelled_by", actor.Role),
		slog.String("reason", reason),
	)

	return booking, nil
}

// parseClock parses an HH:MM wall-clock string.
func parseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}
