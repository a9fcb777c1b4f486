package repository

import (
	"context"

	"github.com/localpro/marketplace/internal/domain"
)

// BookingFilter defines filter criteria for listing bookings.
type BookingFilter struct {
	CustomerID *string
	ProviderID *string
	Status     *string
	Page       int
	PerPage    int
}

// BookingRepository defines the interface for booking persistence operations.
type BookingRepository interface {
	// Create inserts a new booking. A non-cancelled booking already holding
	// the same (service, date, start time) slot causes ErrSlotUnavailable.
	Create(ctx context.Context, booking *domain.Booking) error

	// GetByID retrieves a booking by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// List returns bookings matching the given filter along with the total
	// count, newest-created first.
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, int, error)

	// UpdateStatus moves a booking from fromStatus to status as a single
	// compare-and-set. Completed bookings get completed_at stamped. If the
	// booking no longer holds fromStatus the write is rejected with
	// ErrConflict.
	UpdateStatus(ctx context.Context, id string, fromStatus, status string) error

	// Cancel marks a booking cancelled, recording who cancelled and why.
	// Same compare-and-set contract as UpdateStatus.
	Cancel(ctx context.Context, id string, fromStatus, cancelledBy, reason string) error
}

// ReviewRepository defines the interface for review persistence and the
// aggregate recomputation that accompanies every authoritative review write.
type ReviewRepository interface {
	// Create inserts a review, appends its snapshot projection, and
	// recomputes the service and provider aggregates, all in one
	// transaction. A second review by the same customer on the same service
	// causes ErrDuplicateReview.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Delete removes a review and its snapshot, then recomputes the service
	// and provider aggregates in the same transaction.
	Delete(ctx context.Context, id string) error

	// ListByService returns reviews for a service, newest first, with total count.
	ListByService(ctx context.Context, serviceID string, page, perPage int) ([]domain.Review, int, error)

	// ListByProvider returns reviews across all of a provider's services,
	// newest first, with total count.
	ListByProvider(ctx context.Context, providerID string, page, perPage int) ([]domain.Review, int, error)
}

// ServiceFilter defines filter criteria for listing catalog services.
type ServiceFilter struct {
	Category        *string
	City            *string
	MinPrice        *int64
	MaxPrice        *int64
	Search          *string
	ProviderID      *string
	IncludeInactive bool
	Page            int
	PerPage         int
}

// ServiceRepository defines the interface for catalog persistence operations.
type ServiceRepository interface {
	// Create inserts a new service listing.
	Create(ctx context.Context, service *domain.Service) error

	// GetByID retrieves a service by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Service, error)

	// List returns services matching the given filter along with the total count.
	List(ctx context.Context, filter ServiceFilter) ([]domain.Service, int, error)

	// Update persists changes to a service's provider-editable fields.
	Update(ctx context.Context, service *domain.Service) error

	// Deactivate soft-deletes a service listing.
	Deactivate(ctx context.Context, id string) error

	// IncrementTotalBookings bumps the denormalized booking counter.
	IncrementTotalBookings(ctx context.Context, id string) error

	// ListSnapshots returns the review snapshot projection for a service,
	// newest first, capped at limit.
	ListSnapshots(ctx context.Context, serviceID string, limit int) ([]domain.ReviewSnapshot, error)
}

// UserRepository defines the interface for account persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email causes ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateProfile persists changes to the user-editable profile fields.
	UpdateProfile(ctx context.Context, user *domain.User) error
}
