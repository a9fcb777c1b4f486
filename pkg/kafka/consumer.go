package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries bounds how often a handler runs for one message. After
// the last attempt the message is committed anyway so a poison pill cannot
// wedge the partition.
const maxHandlerRetries = 3

// Handler processes one decoded event envelope.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds the reader settings for one topic subscription.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int

	// DLQ, when set, receives messages whose handler failed all retries.
	// Without it, poison messages are logged and skipped.
	DLQ *DLQProducer
}

// Consumer reads events from a single topic within a consumer group and
// dispatches them to a Handler with retry and dead-letter handling.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   Handler
	dlq       *DLQProducer
	closeOnce sync.Once
}

// NewConsumer builds a consumer for cfg.Topic in cfg.GroupID.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{
		reader:  r,
		logger:  logger,
		handler: handler,
		dlq:     cfg.DLQ,
	}
}

// Start fetches and processes messages until ctx is canceled. Offsets are
// committed after each message, success or not, so the group never re-reads
// a message this process already dealt with.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", slog.String("topic", c.reader.Config().Topic))
			return c.Close()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			// Context canceled mid-retry; the message stays uncommitted
			// and will be redelivered to the group.
			return nil
		}
	}
}

// processMessage decodes, dispatches with retries, and commits msg. A non-nil
// return means ctx was canceled before the message could be handled.
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
		)
		c.commit(ctx, msg, "bad")
		return nil
	}

	lastErr := c.dispatchWithRetries(ctx, event, msg)
	if lastErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.deadLetter(ctx, msg, event, lastErr)
		c.commit(ctx, msg, "poison")
		return nil
	}

	c.commit(ctx, msg, "")
	return nil
}

// dispatchWithRetries runs the handler up to maxHandlerRetries times with a
// linear backoff between attempts.
func (c *Consumer) dispatchWithRetries(ctx context.Context, event *Event, msg kafka.Message) error {
	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		lastErr = c.handler(ctx, event)
		if lastErr == nil {
			return nil
		}

		c.logger.Warn("handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", maxHandlerRetries),
		)

		if attempt == maxHandlerRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return lastErr
}

// deadLetter hands a message that exhausted its retries to the DLQ producer,
// when one is configured.
func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, event *Event, lastErr error) {
	if c.dlq != nil {
		if dlqErr := c.dlq.Publish(ctx, msg, lastErr, c.reader.Config().GroupID); dlqErr != nil {
			c.logger.Error("failed to publish to DLQ",
				slog.String("topic", msg.Topic),
				slog.String("error", dlqErr.Error()),
			)
		}
	}
	c.logger.Error("handler failed after all retries, skipping poison message",
		slog.String("event_type", event.EventType),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("error", lastErr.Error()),
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.Int("retries", maxHandlerRetries),
	)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, kind string) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		field := "failed to commit message"
		if kind != "" {
			field = "failed to commit " + kind + " message"
		}
		c.logger.Error(field, slog.String("error", err.Error()))
	}
}

// Close closes the underlying reader. Safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// TopicPrefix is shared by every marketplace topic name.
const TopicPrefix = "marketplace"

// Topic builds a fully qualified topic name such as "marketplace.booking.confirmed".
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
