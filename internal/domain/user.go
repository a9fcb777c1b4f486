package domain

import "time"

// User roles. The enum is closed: every authenticated request carries exactly
// one of these.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
)

// IsValidRole checks if a role string is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleCustomer || role == RoleProvider
}

// User represents a marketplace account. Rating and TotalReviews are
// denormalized provider aggregates owned by the review service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profile_image,omitempty"`
	Rating       float64   `json:"rating"`
	TotalReviews int       `json:"total_reviews"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair holds an access/refresh token pair issued on register or login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
