package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/repository"
	"github.com/localpro/marketplace/pkg/database"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// Index names backing storage-level uniqueness guarantees. Concurrent writers
// racing past the application-level checks land here.
const (
	bookingSlotIndex       = "bookings_active_slot_idx"
	reviewPerCustomerIndex = "reviews_service_customer_idx"
	userEmailIndex         = "users_email_idx"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// BookingRepository implements repository.BookingRepository using PostgreSQL.
type BookingRepository struct {
	pool database.DBTX
}

// NewBookingRepository creates a new PostgreSQL-backed booking repository.
func NewBookingRepository(pool database.DBTX) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, service_id, provider_id, customer_id, date, start_time, end_time,
	status, total_price, customer_notes, cancellation_reason, cancelled_by,
	cancelled_at, completed_at, created_at, updated_at`

// Create inserts a new booking. The partial unique index on
// (service_id, date, start_time) over non-cancelled rows rejects double
// booking even under concurrent inserts.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, service_id, provider_id, customer_id, date, start_time, end_time, status, total_price, customer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		b.ID,
		b.ServiceID,
		b.ProviderID,
		b.CustomerID,
		b.Date,
		b.StartTime,
		b.EndTime,
		b.Status,
		b.TotalPrice,
		b.CustomerNotes,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, bookingSlotIndex) {
			return apperrors.SlotUnavailable("this time slot is already booked")
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by its ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)

	var b domain.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.ServiceID,
		&b.ProviderID,
		&b.CustomerID,
		&b.Date,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.TotalPrice,
		&b.CustomerNotes,
		&b.CancellationReason,
		&b.CancelledBy,
		&b.CancelledAt,
		&b.CompletedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}

	return &b, nil
}

// List returns bookings matching the given filter with the total count.
func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]domain.Booking, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   int = 1
	)

	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argIndex))
		args = append(args, *filter.CustomerID)
		argIndex++
	}

	if filter.ProviderID != nil {
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", argIndex))
		args = append(args, *filter.ProviderID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM bookings
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		bookingColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var totalCount int
	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID,
			&b.ServiceID,
			&b.ProviderID,
			&b.CustomerID,
			&b.Date,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&b.TotalPrice,
			&b.CustomerNotes,
			&b.CancellationReason,
			&b.CancelledBy,
			&b.CancelledAt,
			&b.CompletedAt,
			&b.CreatedAt,
			&b.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, totalCount, nil
}

// UpdateStatus moves a booking from fromStatus to status. Moving to completed
// stamps completed_at. The WHERE clause compares against fromStatus so a racing
// writer that already moved the booking makes this update match zero rows
// instead of overwriting a terminal state.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, fromStatus, status string) error {
	query := `
		UPDATE bookings
		SET status = $1,
		    completed_at = CASE WHEN $1 = 'completed' THEN $2 ELSE completed_at END,
		    updated_at = $2
		WHERE id = $3 AND status = $4`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id, fromStatus)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("booking was modified concurrently")
	}

	return nil
}

// Cancel marks a booking cancelled and records who cancelled it and why. Like
// UpdateStatus, the write only lands if the booking still holds fromStatus.
func (r *BookingRepository) Cancel(ctx context.Context, id string, fromStatus, cancelledBy, reason string) error {
	query := `
		UPDATE bookings
		SET status = $1, cancellation_reason = $2, cancelled_by = $3, cancelled_at = $4, updated_at = $4
		WHERE id = $5 AND status = $6`

	ct, err := r.pool.Exec(ctx, query, domain.BookingStatusCancelled, reason, cancelledBy, time.Now().UTC(), id, fromStatus)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.Conflict("booking was modified concurrently")
	}

	return nil
}
