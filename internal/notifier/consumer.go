package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/localpro/marketplace/internal/event"
	pkgkafka "github.com/localpro/marketplace/pkg/kafka"
)

// ConsumerGroupID is the Kafka consumer group for the notifier.
const ConsumerGroupID = "marketplace-notifier"

// ConsumerHandler turns booking and review events into notifications.
type ConsumerHandler struct {
	sender Sender
	logger *slog.Logger
}

// NewConsumerHandler creates a new event consumer handler.
func NewConsumerHandler(sender Sender, logger *slog.Logger) *ConsumerHandler {
	return &ConsumerHandler{
		sender: sender,
		logger: logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, e *pkgkafka.Event) error {
	switch e.EventType {
	case event.TopicBookingCreated:
		return h.handleBookingCreated(ctx, e)
	case event.TopicBookingStatusChanged:
		return h.handleBookingStatusChanged(ctx, e)
	case event.TopicBookingCancelled:
		return h.handleBookingCancelled(ctx, e)
	case event.TopicReviewCreated:
		return h.handleReviewCreated(ctx, e)
	case event.TopicReviewDeleted:
		return h.handleReviewDeleted(ctx, e)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", e.EventType),
			slog.String("event_id", e.EventID),
		)
		return nil
	}
}

func (h *ConsumerHandler) handleBookingCreated(ctx context.Context, e *pkgkafka.Event) error {
	var data event.BookingCreatedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return fmt.Errorf("decode booking.created payload: %w", err)
	}

	return h.sender.Send(ctx, &Notification{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Subject:    "New booking request",
		Message:    fmt.Sprintf("Booking %s requested for %s at %s", data.ID, data.Date, data.StartTime),
		OccurredAt: e.Timestamp,
		Data:       e.Data,
	})
}

func (h *ConsumerHandler) handleBookingStatusChanged(ctx context.Context, e *pkgkafka.Event) error {
	var data event.BookingStatusChangedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return fmt.Errorf("decode booking.status_changed payload: %w", err)
	}

	return h.sender.Send(ctx, &Notification{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Subject:    "Booking " + data.NewStatus,
		Message:    fmt.Sprintf("Booking %s moved from %s to %s", data.BookingID, data.OldStatus, data.NewStatus),
		OccurredAt: e.Timestamp,
		Data:       e.Data,
	})
}

func (h *ConsumerHandler) handleBookingCancelled(ctx context.Context, e *pkgkafka.Event) error {
	var data event.BookingCancelledData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return fmt.Errorf("decode booking.cancelled payload: %w", err)
	}

	msg := fmt.Sprintf("Booking %s was cancelled by the %s", data.BookingID, data.CancelledBy)
	if data.Reason != "" {
		msg += ": " + data.Reason
	}

	return h.sender.Send(ctx, &Notification{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Subject:    "Booking cancelled",
		Message:    msg,
		OccurredAt: e.Timestamp,
		Data:       e.Data,
	})
}

func (h *ConsumerHandler) handleReviewCreated(ctx context.Context, e *pkgkafka.Event) error {
	var data event.ReviewCreatedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return fmt.Errorf("decode review.created payload: %w", err)
	}

	return h.sender.Send(ctx, &Notification{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Subject:    "New review",
		Message:    fmt.Sprintf("Service %s received a %d-star review", data.ServiceID, data.Rating),
		OccurredAt: e.Timestamp,
		Data:       e.Data,
	})
}

func (h *ConsumerHandler) handleReviewDeleted(ctx context.Context, e *pkgkafka.Event) error {
	var data event.ReviewDeletedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return fmt.Errorf("decode review.deleted payload: %w", err)
	}

	return h.sender.Send(ctx, &Notification{
		EventID:    e.EventID,
		EventType:  e.EventType,
		Subject:    "Review removed",
		Message:    fmt.Sprintf("A review on service %s was removed", data.ServiceID),
		OccurredAt: e.Timestamp,
		Data:       e.Data,
	})
}

// NewConsumers creates one consumer per subscribed topic. Each handler is
// wrapped with the idempotency store so redelivered events are not sent twice,
// and failed events land on the DLQ.
func NewConsumers(
	brokers []string,
	handler *ConsumerHandler,
	store pkgkafka.IdempotencyStore,
	dlq *pkgkafka.DLQProducer,
	logger *slog.Logger,
) []*pkgkafka.Consumer {
	topics := []string{
		event.TopicBookingCreated,
		event.TopicBookingStatusChanged,
		event.TopicBookingCancelled,
		event.TopicReviewCreated,
		event.TopicReviewDeleted,
	}

	wrapped := pkgkafka.IdempotentHandler(store, handler.Handle, logger)

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  ConsumerGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			DLQ:      dlq,
		}

		consumers = append(consumers, pkgkafka.NewConsumer(cfg, wrapped, logger))
	}

	return consumers
}
