package domain

import "time"

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a service. At most one review exists per
// (service, customer) pair.
type Review struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"service_id"`
	ProviderID string    `json:"provider_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ReviewSnapshot is a display-only projection of a review, embedded in
// service detail responses. It is refreshed after each authoritative review
// write and never read back into aggregate computations.
type ReviewSnapshot struct {
	ReviewID   string    `json:"review_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RatingSummary holds a recomputed aggregate over a full review set.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}
