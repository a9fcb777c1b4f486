package domain

import "time"

// Booking status constants.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a customer booking of a provider's service for a
// specific date and start time.
type Booking struct {
	ID                 string     `json:"id"`
	ServiceID          string     `json:"service_id"`
	ProviderID         string     `json:"provider_id"`
	CustomerID         string     `json:"customer_id"`
	Date               time.Time  `json:"date"`
	StartTime          string     `json:"start_time"`
	EndTime            string     `json:"end_time"`
	Status             string     `json:"status"`
	TotalPrice         int64      `json:"total_price"`
	CustomerNotes      string     `json:"customer_notes,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ValidBookingStatuses returns all valid booking statuses.
func ValidBookingStatuses() []string {
	return []string{
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusCompleted,
		BookingStatusCancelled,
	}
}

// IsValidBookingStatus checks if a status string is valid.
func IsValidBookingStatus(status string) bool {
	for _, s := range ValidBookingStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid.
// Completed and cancelled are terminal.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusCompleted: {},
		BookingStatusCancelled: {},
	}
}

// CanTransitionTo checks if the booking can transition to the target status.
func (b *Booking) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[b.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsParticipant reports whether the given user is the booking's customer or provider.
func (b *Booking) IsParticipant(userID string) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}
