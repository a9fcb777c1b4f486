package domain

import "time"

// Price unit constants.
const (
	PriceUnitHourly = "hourly"
	PriceUnitFixed  = "fixed"
)

// IsValidPriceUnit checks if a price unit string is one of the known units.
func IsValidPriceUnit(unit string) bool {
	return unit == PriceUnitHourly || unit == PriceUnitFixed
}

// MinServiceDuration is the shortest bookable appointment, in minutes.
const MinServiceDuration = 15

// DefaultServiceDuration is used when a listing does not specify one.
const DefaultServiceDuration = 60

// AvailabilitySlot is a weekly recurring window during which a service can be
// booked. Times are "HH:MM" in the provider's local time.
type AvailabilitySlot struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Service is a provider's catalog listing. Rating, TotalReviews and
// TotalBookings are denormalized aggregates: the review service owns the
// first two, the booking service owns the third. Catalog writes never touch
// them.
type Service struct {
	ID            string             `json:"id"`
	ProviderID    string             `json:"provider_id"`
	Title         string             `json:"title"`
	Slug          string             `json:"slug"`
	Description   string             `json:"description"`
	Category      string             `json:"category"`
	Price         int64              `json:"price"`
	PriceUnit     string             `json:"price_unit"`
	Duration      int                `json:"duration"`
	City          string             `json:"city"`
	Address       string             `json:"address,omitempty"`
	Images        []string           `json:"images,omitempty"`
	Availability  []AvailabilitySlot `json:"availability,omitempty"`
	Rating        float64            `json:"rating"`
	TotalReviews  int                `json:"total_reviews"`
	TotalBookings int                `json:"total_bookings"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
