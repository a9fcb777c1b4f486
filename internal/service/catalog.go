package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/localpro/marketplace/internal/auth"
	"github.com/localpro/marketplace/internal/domain"
	"github.com/localpro/marketplace/internal/repository"
	apperrors "github.com/localpro/marketplace/pkg/errors"
	"github.com/localpro/marketplace/pkg/slug"
)

// CatalogService implements the business logic for service listings.
type CatalogService struct {
	serviceRepo repository.ServiceRepository
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(serviceRepo repository.ServiceRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		serviceRepo: serviceRepo,
		logger:      logger,
	}
}

// CreateServiceInput holds the parameters for creating a service listing.
type CreateServiceInput struct {
	Title        string
	Description  string
	Category     string
	Price        int64
	PriceUnit    string
	Duration     int
	City         string
	Address      string
	Images       []string
	Availability []domain.AvailabilitySlot
}

// UpdateServiceInput holds the parameters for updating a listing. Nil fields
// are left unchanged.
type UpdateServiceInput struct {
	Title        *string
	Description  *string
	Category     *string
	Price        *int64
	PriceUnit    *string
	Duration     *int
	City         *string
	Address      *string
	Images       []string
	Availability []domain.AvailabilitySlot
}

// ServiceDetail is a listing together with its recent review snapshots.
type ServiceDetail struct {
	domain.Service
	RecentReviews []domain.ReviewSnapshot `json:"recent_reviews"`
}

// CreateService publishes a new listing owned by the acting provider.
func (s *CatalogService) CreateService(ctx context.Context, actor auth.Actor, input CreateServiceInput) (*domain.Service, error) {
	if err := auth.RequireRole(actor, domain.RoleProvider); err != nil {
		return nil, err
	}

	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Category == "" {
		return nil, apperrors.InvalidInput("category is required")
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if !domain.IsValidPriceUnit(input.PriceUnit) {
		return nil, apperrors.InvalidInput("price_unit must be hourly or fixed")
	}
	if input.Duration == 0 {
		input.Duration = domain.DefaultServiceDuration
	}
	if input.Duration < domain.MinServiceDuration {
		return nil, apperrors.InvalidInput(fmt.Sprintf("duration must be at least %d minutes", domain.MinServiceDuration))
	}
	if input.City == "" {
		return nil, apperrors.InvalidInput("city is required")
	}

	now := time.Now().UTC()
	id := uuid.New().String()
	svc := &domain.Service{
		ID:           id,
		ProviderID:   actor.ID,
		Title:        input.Title,
		Slug:         slug.Generate(input.Title) + "-" + id[:8],
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		PriceUnit:    input.PriceUnit,
		Duration:     input.Duration,
		City:         input.City,
		Address:      input.Address,
		Images:       input.Images,
		Availability: input.Availability,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	s.logger.InfoContext(ctx, "service created",
		slog.String("service_id", svc.ID),
		slog.String("provider_id", svc.ProviderID),
		slog.String("category", svc.Category),
	)

	return svc, nil
}

// GetService retrieves a listing with its recent review snapshots.
// Deactivated listings stay visible to their owner only.
func (s *CatalogService) GetService(ctx context.Context, actor auth.Actor, id string) (*ServiceDetail, error) {
	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get service by id: %w", err)
	}

	if !svc.IsActive && svc.ProviderID != actor.ID {
		return nil, apperrors.NotFound("service", id)
	}

	snapshots, err := s.serviceRepo.ListSnapshots(ctx, id, 10)
	if err != nil {
		return nil, fmt.Errorf("list review snapshots: %w", err)
	}

	return &ServiceDetail{Service: *svc, RecentReviews: snapshots}, nil
}

// ListServices returns active listings matching the filter. Providers listing
// their own services also see deactivated ones.
func (s *CatalogService) ListServices(ctx context.Context, actor auth.Actor, filter repository.ServiceFilter) ([]domain.Service, int, error) {
	filter.IncludeInactive = filter.ProviderID != nil && *filter.ProviderID == actor.ID

	filter.Page, filter.PerPage = clampPage(filter.Page, filter.PerPage)

	services, total, err := s.serviceRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}

	return services, total, nil
}

// UpdateService applies partial updates to a listing owned by the actor.
func (s *CatalogService) UpdateService(ctx context.Context, actor auth.Actor, id string, input UpdateServiceInput) (*domain.Service, error) {
	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get service for update: %w", err)
	}

	if err := auth.CanManageService(actor, svc); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, apperrors.InvalidInput("title must not be empty")
		}
		svc.Title = *input.Title
		svc.Slug = slug.Generate(*input.Title) + "-" + svc.ID[:8]
	}
	if input.Description != nil {
		svc.Description = *input.Description
	}
	if input.Category != nil {
		if *input.Category == "" {
			return nil, apperrors.InvalidInput("category must not be empty")
		}
		svc.Category = *input.Category
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		svc.Price = *input.Price
	}
	if input.PriceUnit != nil {
		if !domain.IsValidPriceUnit(*input.PriceUnit) {
			return nil, apperrors.InvalidInput("price_unit must be hourly or fixed")
		}
		svc.PriceUnit = *input.PriceUnit
	}
	if input.Duration != nil {
		if *input.Duration < domain.MinServiceDuration {
			return nil, apperrors.InvalidInput(fmt.Sprintf("duration must be at least %d minutes", domain.MinServiceDuration))
		}
		svc.Duration = *input.Duration
	}
	if input.City != nil {
		if *input.City == "" {
			return nil, apperrors.InvalidInput("city must not be empty")
		}
		svc.City = *input.City
	}
	if input.Address != nil {
		svc.Address = *input.Address
	}
	if input.Images != nil {
		svc.Images = input.Images
	}
	if input.Availability != nil {
		svc.Availability = input.Availability
	}

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	s.logger.InfoContext(ctx, "service updated",
		slog.String("service_id", svc.ID),
		slog.String("provider_id", svc.ProviderID),
	)

	return svc, nil
}

// DeactivateService soft-deletes a listing owned by the actor. Existing
// bookings and reviews are untouched.
func (s *CatalogService) DeactivateService(ctx context.Context, actor auth.Actor, id string) error {
	svc, err := s.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get service for deactivate: %w", err)
	}

	if err := auth.CanManageService(actor, svc); err != nil {
		return err
	}

	if err := s.serviceRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate service: %w", err)
	}

	s.logger.InfoContext(ctx, "service deactivated",
		slog.String("service_id", id),
		slog.String("provider_id", svc.ProviderID),
	)

	return nil
}
