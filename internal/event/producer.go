package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/localpro/marketplace/internal/domain"
	pkgkafka "github.com/localpro/marketplace/pkg/kafka"
)

// Kafka topic constants for marketplace domain events.
const (
	TopicBookingCreated       = "marketplace.booking.created"
	TopicBookingStatusChanged = "marketplace.booking.status_changed"
	TopicBookingCancelled     = "marketplace.booking.cancelled"
	TopicReviewCreated        = "marketplace.review.created"
	TopicReviewDeleted        = "marketplace.review.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeBooking = "booking"
	AggregateTypeReview  = "review"
)

// Source identifier for events originating from the marketplace API.
const SourceMarketplace = "marketplace-api"

// BookingCreatedData is the payload for a booking.created event (full booking snapshot).
type BookingCreatedData struct {
	ID         string `json:"id"`
	ServiceID  string `json:"service_id"`
	CustomerID string `json:"customer_id"`
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	TotalPrice int64  `json:"total_price"`
	Notes      string `json:"notes,omitempty"`
}

// BookingStatusChangedData is the payload for a booking.status_changed event.
type BookingStatusChangedData struct {
	BookingID  string `json:"booking_id"`
	ServiceID  string `json:"service_id"`
	CustomerID string `json:"customer_id"`
	ProviderID string `json:"provider_id"`
	OldStatus  string `json:"old_status"`
	NewStatus  string `json:"new_status"`
}

// BookingCancelledData is the payload for a booking.cancelled event.
type BookingCancelledData struct {
	BookingID   string `json:"booking_id"`
	ServiceID   string `json:"service_id"`
	CustomerID  string `json:"customer_id"`
	ProviderID  string `json:"provider_id"`
	CancelledBy string `json:"cancelled_by"`
	Reason      string `json:"reason,omitempty"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID   string `json:"review_id"`
	ServiceID  string `json:"service_id"`
	ProviderID string `json:"provider_id"`
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ReviewID   string `json:"review_id"`
	ServiceID  string `json:"service_id"`
	ProviderID string `json:"provider_id"`
}

// Producer publishes marketplace domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the marketplace API.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishBookingCreated publishes a booking.created event with the full booking snapshot.
func (p *Producer) PublishBookingCreated(ctx context.Context, booking *domain.Booking) error {
	data := BookingCreatedData{
		ID:         booking.ID,
		ServiceID:  booking.ServiceID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
		Status:     booking.Status,
		Date:       booking.Date.Format("2006-01-02"),
		StartTime:  booking.StartTime,
		EndTime:    booking.EndTime,
		TotalPrice: booking.TotalPrice,
		Notes:      booking.CustomerNotes,
	}

	event, err := pkgkafka.NewEvent(TopicBookingCreated, booking.ID, AggregateTypeBooking, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create booking.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookingCreated, event); err != nil {
		return fmt.Errorf("publish booking.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published booking.created event",
		slog.String("booking_id", booking.ID),
		slog.String("service_id", booking.ServiceID),
	)

	return nil
}

// PublishBookingStatusChanged publishes a booking.status_changed event.
func (p *Producer) PublishBookingStatusChanged(ctx context.Context, booking *domain.Booking, oldStatus, newStatus string) error {
	data := BookingStatusChangedData{
		BookingID:  booking.ID,
		ServiceID:  booking.ServiceID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
	}

	event, err := pkgkafka.NewEvent(TopicBookingStatusChanged, booking.ID, AggregateTypeBooking, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create booking.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookingStatusChanged, event); err != nil {
		return fmt.Errorf("publish booking.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published booking.status_changed event",
		slog.String("booking_id", booking.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
	)

	return nil
}

// PublishBookingCancelled publishes a booking.cancelled event.
func (p *Producer) PublishBookingCancelled(ctx context.Context, booking *domain.Booking, cancelledBy, reason string) error {
	data := BookingCancelledData{
		BookingID:   booking.ID,
		ServiceID:   booking.ServiceID,
		CustomerID:  booking.CustomerID,
		ProviderID:  booking.ProviderID,
		CancelledBy: cancelledBy,
		Reason:      reason,
	}

	event, err := pkgkafka.NewEvent(TopicBookingCancelled, booking.ID, AggregateTypeBooking, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create booking.cancelled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBookingCancelled, event); err != nil {
		return fmt.Errorf("publish booking.cancelled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published booking.cancelled event",
		slog.String("booking_id", booking.ID),
		slog.String("cancelled_by", cancelledBy),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ReviewID:   review.ID,
		ServiceID:  review.ServiceID,
		ProviderID: review.ProviderID,
		CustomerID: review.CustomerID,
		Rating:     review.Rating,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("service_id", review.ServiceID),
	)

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	data := ReviewDeletedData{
		ReviewID:   review.ID,
		ServiceID:  review.ServiceID,
		ProviderID: review.ProviderID,
	}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, review.ID, AggregateTypeReview, SourceMarketplace, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", review.ID),
	)

	return nil
}
