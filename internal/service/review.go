package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localpro/marketplace/internal/auth"
	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/event"
	"github.com/localpro/marketplace/internal/repository"
	apperrors "github.com/localpro/marketplace/pkg/errors"
)

// Review comments must carry real text: at least minCommentLength characters
// after trimming, at most maxCommentLength.
const (
	minCommentLength = 5
	maxCommentLength = 2000
)

// ReviewService implements the business logic for reviews and rating
// aggregation.
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	serviceRepo repository.ServiceRepository
	producer    *event.Producer
	logger      *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	serviceRepo repository.ServiceRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		serviceRepo: serviceRepo,
		producer:    producer,
		logger:      logger,
	}
}

// AddReviewInput holds the parameters for creating a review.
type AddReviewInput struct {
	ServiceID string
	Rating    int
	Comment   string
}

// AddReview records a customer's review of a service. Each customer may
// review a given service once; the rating aggregates on the service and its
// provider are recomputed as part of the same write.
func (s *ReviewService) AddReview(ctx context.Context, actor auth.Actor, input AddReviewInput) (*domain.Review, error) {
	if err := auth.CanReviewService(actor); err != nil {
		return nil, err
	}

	if input.ServiceID == "" {
		return nil, apperrors.InvalidInput("service_id is required")
	}
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if len(strings.TrimSpace(input.Comment)) < minCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must be at least %d characters", minCommentLength))
	}
	if len(input.Comment) > maxCommentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("comment must not exceed %d characters", maxCommentLength))
	}

	svc, err := s.serviceRepo.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("get service for review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:         uuid.New().String(),
		ServiceID:  svc.ID,
		ProviderID: svc.ProviderID,
		CustomerID: actor.ID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("service_id", review.ServiceID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// DeleteReview removes a review. Only its author may delete it; the service
// and provider aggregates are recomputed from the remaining reviews.
func (s *ReviewService) DeleteReview(ctx context.Context, actor auth.Actor, id string) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}

	if err := auth.CanDeleteReview(actor, review); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", id),
		slog.String("service_id", review.ServiceID),
	)

	return nil
}

// ListServiceReviews returns reviews for a service, newest first.
func (s *ReviewService) ListServiceReviews(ctx context.Context, serviceID string, page, perPage int) ([]domain.Review, int, error) {
	if _, err := s.serviceRepo.GetByID(ctx, serviceID); err != nil {
		return nil, 0, fmt.Errorf("get service for reviews: %w", err)
	}

	page, perPage = clampPage(page, perPage)

	reviews, total, err := s.reviewRepo.ListByService(ctx, serviceID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list service reviews: %w", err)
	}

	return reviews, total, nil
}

// ListProviderReviews returns reviews across all of a provider's services,
// newest first.
func (s *ReviewService) ListProviderReviews(ctx context.Context, providerID string, page, perPage int) ([]domain.Review, int, error) {
	page, perPage = clampPage(page, perPage)

	reviews, total, err := s.reviewRepo.ListByProvider(ctx, providerID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list provider reviews: %w", err)
	}

	return reviews, total, nil
}

// clampPage normalizes pagination parameters.
func clampPage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
