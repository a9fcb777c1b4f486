package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpro/marketplace/internal/domain"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// --- Token Tests ---

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour)
}

func TestJWTManager_AccessTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-123", "jo@example.com", domain.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "jo@example.com", claims.Email)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("another-secret", 15*time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken("user-123", "jo@example.com", domain.RoleProvider)
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, 24*time.Hour)

	token, err := m.GenerateAccessToken("user-123", "jo@example.com", domain.RoleCustomer)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsUnknownRole(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-123", "jo@example.com", "admin")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestJWTManager_RefreshTokenRoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-123")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
}

// --- Guard Tests ---

func TestRequireRole(t *testing.T) {
	customer := Actor{ID: "u1", Role: domain.RoleCustomer}

	assert.NoError(t, RequireRole(customer, domain.RoleCustomer))
	assert.NoError(t, RequireRole(customer, domain.RoleProvider, domain.RoleCustomer))

	err := RequireRole(customer, domain.RoleProvider)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCanViewBooking(t *testing.T) {
	booking := &domain.Booking{ID: "b1", CustomerID: "cust-1", ProviderID: "prov-1"}

	assert.NoError(t, CanViewBooking(Actor{ID: "cust-1", Role: domain.RoleCustomer}, booking))
	assert.NoError(t, CanViewBooking(Actor{ID: "prov-1", Role: domain.RoleProvider}, booking))

	err := CanViewBooking(Actor{ID: "stranger", Role: domain.RoleCustomer}, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCanUpdateBookingStatus(t *testing.T) {
	booking := &domain.Booking{ID: "b1", CustomerID: "cust-1", ProviderID: "prov-1"}

	assert.NoError(t, CanUpdateBookingStatus(Actor{ID: "prov-1", Role: domain.RoleProvider}, booking))

	// The customer on the booking cannot drive the lifecycle.
	err := CanUpdateBookingStatus(Actor{ID: "cust-1", Role: domain.RoleCustomer}, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Neither can another provider.
	err = CanUpdateBookingStatus(Actor{ID: "prov-2", Role: domain.RoleProvider}, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCanCancelBooking(t *testing.T) {
	booking := &domain.Booking{ID: "b1", CustomerID: "cust-1", ProviderID: "prov-1"}

	assert.NoError(t, CanCancelBooking(Actor{ID: "cust-1", Role: domain.RoleCustomer}, booking))
	assert.NoError(t, CanCancelBooking(Actor{ID: "prov-1", Role: domain.RoleProvider}, booking))

	err := CanCancelBooking(Actor{ID: "stranger", Role: domain.RoleProvider}, booking)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCanReviewService(t *testing.T) {
	assert.NoError(t, CanReviewService(Actor{ID: "u1", Role: domain.RoleCustomer}))

	err := CanReviewService(Actor{ID: "u2", Role: domain.RoleProvider})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCanDeleteReview(t *testing.T) {
	review := &domain.Review{ID: "r1", CustomerID: "cust-1"}

	assert.NoError(t, CanDeleteReview(Actor{ID: "cust-1", Role: domain.RoleCustomer}, review))

	err := CanDeleteReview(Actor{ID: "cust-2", Role: domain.RoleCustomer}, review)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCanManageService(t *testing.T) {
	svc := &domain.Service{ID: "s1", ProviderID: "prov-1"}

	assert.NoError(t, CanManageService(Actor{ID: "prov-1", Role: domain.RoleProvider}, svc))

	err := CanManageService(Actor{ID: "prov-2", Role: domain.RoleProvider}, svc)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = CanManageService(Actor{ID: "prov-1", Role: domain.RoleCustomer}, svc)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
