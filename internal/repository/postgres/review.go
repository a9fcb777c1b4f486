package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/pkg/database"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// round1 rounds to one decimal place, half away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Create inserts a review, appends the snapshot projection, and recomputes
// the service and provider aggregates from the full review set, all within
// one transaction. The unique index on (service_id, customer_id) rejects a
// second review even under concurrent inserts.
func (r *ReviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO reviews (id, service_id, provider_id, customer_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, insertQuery,
		rev.ID,
		rev.ServiceID,
		rev.ProviderID,
		rev.CustomerID,
		rev.Rating,
		rev.Comment,
		rev.CreatedAt,
		rev.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, reviewPerCustomerIndex) {
			return apperrors.DuplicateReview("you have already reviewed this service")
		}
		return fmt.Errorf("insert review: %w", err)
	}

	snapshotQuery := `
		INSERT INTO service_review_snapshots (review_id, service_id, customer_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = tx.Exec(ctx, snapshotQuery,
		rev.ID,
		rev.ServiceID,
		rev.CustomerID,
		rev.Rating,
		rev.Comment,
		rev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review snapshot: %w", err)
	}

	if err := r.recomputeServiceAggregate(ctx, tx, rev.ServiceID); err != nil {
		return err
	}

	if err := r.recomputeProviderAggregate(ctx, tx, rev.ProviderID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT id, service_id, provider_id, customer_id, rating, comment, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	var rev domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rev.ID,
		&rev.ServiceID,
		&rev.ProviderID,
		&rev.CustomerID,
		&rev.Rating,
		&rev.Comment,
		&rev.CreatedAt,
		&rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rev, nil
}

// Delete removes a review and its snapshot, then recomputes the service and
// provider aggregates in the same transaction.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var serviceID, providerID string
	err = tx.QueryRow(ctx, `DELETE FROM reviews WHERE id = $1 RETURNING service_id, provider_id`, id).
		Scan(&serviceID, &providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("review", id)
		}
		return fmt.Errorf("delete review: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM service_review_snapshots WHERE review_id = $1`, id); err != nil {
		return fmt.Errorf("delete review snapshot: %w", err)
	}

	if err := r.recomputeServiceAggregate(ctx, tx, serviceID); err != nil {
		return err
	}

	if err := r.recomputeProviderAggregate(ctx, tx, providerID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// recomputeServiceAggregate rewrites the service's denormalized rating and
// review count from the full review set. An empty set resets the rating to 0.
func (r *ReviewRepository) recomputeServiceAggregate(ctx context.Context, tx pgx.Tx, serviceID string) error {
	var avg float64
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE service_id = $1`,
		serviceID,
	).Scan(&avg, &count)
	if err != nil {
		return fmt.Errorf("compute service rating: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE services SET rating = $1, total_reviews = $2, updated_at = $3 WHERE id = $4`,
		round1(avg), count, time.Now().UTC(), serviceID,
	)
	if err != nil {
		return fmt.Errorf("update service rating: %w", err)
	}

	return nil
}

// recomputeProviderAggregate rewrites the provider's denormalized rating and
// review count across all of the provider's services.
func (r *ReviewRepository) recomputeProviderAggregate(ctx context.Context, tx pgx.Tx, providerID string) error {
	var avg float64
	var count int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE provider_id = $1`,
		providerID,
	).Scan(&avg, &count)
	if err != nil {
		return fmt.Errorf("compute provider rating: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET rating = $1, total_reviews = $2, updated_at = $3 WHERE id = $4`,
		round1(avg), count, time.Now().UTC(), providerID,
	)
	if err != nil {
		return fmt.Errorf("update provider rating: %w", err)
	}

	return nil
}

// ListByService returns reviews for a service, newest first, with total count.
func (r *ReviewRepository) ListByService(ctx context.Context, serviceID string, page, perPage int) ([]domain.Review, int, error) {
	return r.list(ctx, "service_id", serviceID, page, perPage)
}

// ListByProvider returns reviews across all of a provider's services, newest
// first, with total count.
func (r *ReviewRepository) ListByProvider(ctx context.Context, providerID string, page, perPage int) ([]domain.Review, int, error) {
	return r.list(ctx, "provider_id", providerID, page, perPage)
}

func (r *ReviewRepository) list(ctx context.Context, column, value string, page, perPage int) ([]domain.Review, int, error) {
	query := fmt.Sprintf(`
		SELECT id, service_id, provider_id, customer_id, rating, comment, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM reviews
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, column)

	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	rows, err := r.pool.Query(ctx, query, value, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var rev domain.Review
		if err := rows.Scan(
			&rev.ID,
			&rev.ServiceID,
			&rev.ProviderID,
			&rev.CustomerID,
			&rev.Rating,
			&rev.Comment,
			&rev.CreatedAt,
			&rev.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}
