package auth

import (
	"github.com/localpro/marketplace/internal/domain"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// Actor is the authenticated principal making a request, extracted from the
// validated access token.
type Actor struct {
	ID    string
	Email string
	Role  string
}

// ActorFromClaims builds an Actor from validated token claims.
func ActorFromClaims(c *Claims) Actor {
	return Actor{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// RequireRole checks that the actor holds one of the given roles.
func RequireRole(actor Actor, roles ...string) error {
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return apperrors.Forbidden("insufficient permissions")
}

// CanViewBooking allows only the booking's customer or provider to read it.
func CanViewBooking(actor Actor, booking *domain.Booking) error {
	if !booking.IsParticipant(actor.ID) {
		return apperrors.Forbidden("you do not have access to this booking")
	}
	return nil
}

// CanUpdateBookingStatus allows only the provider who owns the booked service
// to move a booking through its lifecycle.
func CanUpdateBookingStatus(actor Actor, booking *domain.Booking) error {
	if actor.Role != domain.RoleProvider || booking.ProviderID != actor.ID {
		return apperrors.Forbidden("only the service provider can update the booking status")
	}
	return nil
}

// CanCancelBooking allows either participant to cancel.
func CanCancelBooking(actor Actor, booking *domain.Booking) error {
	if !booking.IsParticipant(actor.ID) {
		return apperrors.Forbidden("you do not have access to this booking")
	}
	return nil
}

// CanReviewService restricts review creation to customers.
func CanReviewService(actor Actor) error {
	if actor.Role != domain.RoleCustomer {
		return apperrors.Forbidden("only customers can review services")
	}
	return nil
}

// CanDeleteReview allows only the review's author to remove it.
func CanDeleteReview(actor Actor, review *domain.Review) error {
	if review.CustomerID != actor.ID {
		return apperrors.Forbidden("only the review author can delete it")
	}
	return nil
}

// CanManageService allows only the provider who owns a listing to modify it.
func CanManageService(actor Actor, service *domain.Service) error {
	if actor.Role != domain.RoleProvider || service.ProviderID != actor.ID {
		return apperrors.Forbidden("only the owning provider can modify this service")
	}
	return nil
}
