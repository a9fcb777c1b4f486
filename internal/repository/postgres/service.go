package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/repository"
	"github.com/localpro/marketplace/pkg/database"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// ServiceRepository implements repository.ServiceRepository using PostgreSQL.
type ServiceRepository struct {
	pool database.DBTX
}

// NewServiceRepository creates a new PostgreSQL-backed catalog repository.
func NewServiceRepository(pool database.DBTX) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const serviceColumns = `id, provider_id, title, slug, description, category, price, price_unit,
	duration, city, address, images, availability, rating, total_reviews, total_bookings,
	is_active, created_at, updated_at`

// Create inserts a new service listing.
func (r *ServiceRepository) Create(ctx context.Context, s *domain.Service) error {
	imagesJSON, err := json.Marshal(s.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	availabilityJSON, err := json.Marshal(s.Availability)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	query := `
		INSERT INTO services (id, provider_id, title, slug, description, category, price, price_unit, duration, city, address, images, availability, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = r.pool.Exec(ctx, query,
		s.ID,
		s.ProviderID,
		s.Title,
		s.Slug,
		s.Description,
		s.Category,
		s.Price,
		s.PriceUnit,
		s.Duration,
		s.City,
		s.Address,
		imagesJSON,
		availabilityJSON,
		s.IsActive,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}

	return nil
}

func scanService(row pgx.Row, withTotal bool, totalCount *int) (*domain.Service, error) {
	var (
		s                domain.Service
		imagesJSON       []byte
		availabilityJSON []byte
	)

	dest := []any{
		&s.ID,
		&s.ProviderID,
		&s.Title,
		&s.Slug,
		&s.Description,
		&s.Category,
		&s.Price,
		&s.PriceUnit,
		&s.Duration,
		&s.City,
		&s.Address,
		&imagesJSON,
		&availabilityJSON,
		&s.Rating,
		&s.TotalReviews,
		&s.TotalBookings,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	}
	if withTotal {
		dest = append(dest, totalCount)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if len(imagesJSON) > 0 && string(imagesJSON) != "null" {
		if err := json.Unmarshal(imagesJSON, &s.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if len(availabilityJSON) > 0 && string(availabilityJSON) != "null" {
		if err := json.Unmarshal(availabilityJSON, &s.Availability); err != nil {
			return nil, fmt.Errorf("unmarshal availability: %w", err)
		}
	}

	return &s, nil
}

// GetByID retrieves a service by its ID.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	query := fmt.Sprintf(`SELECT %s FROM services WHERE id = $1`, serviceColumns)

	s, err := scanService(r.pool.QueryRow(ctx, query, id), false, nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan service: %w", err)
	}

	return s, nil
}

// List returns services matching the given filter with the total count.
func (r *ServiceRepository) List(ctx context.Context, filter repository.ServiceFilter) ([]domain.Service, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   int = 1
	)

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active = TRUE")
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.City != nil {
		conditions = append(conditions, fmt.Sprintf("city = $%d", argIndex))
		args = append(args, *filter.City)
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.ProviderID != nil {
		conditions = append(conditions, fmt.Sprintf("provider_id = $%d", argIndex))
		args = append(args, *filter.ProviderID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM services
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		serviceColumns, whereClause, argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var totalCount int
	services := make([]domain.Service, 0)

	for rows.Next() {
		s, err := scanService(rows, true, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate service rows: %w", err)
	}

	return services, totalCount, nil
}

// Update persists changes to the provider-editable fields of a service.
// Denormalized aggregates are untouched.
func (r *ServiceRepository) Update(ctx context.Context, s *domain.Service) error {
	imagesJSON, err := json.Marshal(s.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	availabilityJSON, err := json.Marshal(s.Availability)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	query := `
		UPDATE services
		SET title = $1, slug = $2, description = $3, category = $4, price = $5,
		    price_unit = $6, duration = $7, city = $8, address = $9, images = $10,
		    availability = $11, is_active = $12, updated_at = $13
		WHERE id = $14`

	ct, err := r.pool.Exec(ctx, query,
		s.Title,
		s.Slug,
		s.Description,
		s.Category,
		s.Price,
		s.PriceUnit,
		s.Duration,
		s.City,
		s.Address,
		imagesJSON,
		availabilityJSON,
		s.IsActive,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("service", s.ID)
	}

	return nil
}

// Deactivate soft-deletes a service listing.
func (r *ServiceRepository) Deactivate(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE services SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deactivate service: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("service", id)
	}

	return nil
}

// IncrementTotalBookings bumps the denormalized booking counter.
func (r *ServiceRepository) IncrementTotalBookings(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE services SET total_bookings = total_bookings + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("increment total bookings: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("service", id)
	}

	return nil
}

// ListSnapshots returns the review snapshot projection for a service, newest
// first, capped at limit.
func (r *ServiceRepository) ListSnapshots(ctx context.Context, serviceID string, limit int) ([]domain.ReviewSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT review_id, customer_id, rating, comment, created_at
		FROM service_review_snapshots
		WHERE service_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, serviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list review snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.ReviewSnapshot, 0)
	for rows.Next() {
		var snap domain.ReviewSnapshot
		if err := rows.Scan(&snap.ReviewID, &snap.CustomerID, &snap.Rating, &snap.Comment, &snap.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review snapshot rows: %w", err)
	}

	return snapshots, nil
}
