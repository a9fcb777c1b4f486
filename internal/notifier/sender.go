package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/localpro/marketplace/pkg/httpclient"
)

// Notification is the rendered payload delivered for a consumed event.
type Notification struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Subject    string          `json:"subject"`
	Message    string          `json:"message"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Sender delivers notifications to their destination.
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

// WebhookSender posts notifications as JSON to a configured endpoint. Calls
// go through a circuit breaker so a dead endpoint cannot stall the consumer
// loop for every event.
type WebhookSender struct {
	client *httpclient.CircuitBreakerClient
	url    string
	logger *slog.Logger
}

// NewWebhookSender creates a webhook sender for the given endpoint URL.
func NewWebhookSender(url string, logger *slog.Logger) *WebhookSender {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("notifier-webhook"), logger)

	return &WebhookSender{
		client: cb,
		url:    url,
		logger: logger,
	}
}

// Send posts the notification. Any non-2xx response is an error so the
// consumer's retry and DLQ machinery kicks in.
func (s *WebhookSender) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	resp, err := s.client.Post(ctx, s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.DebugContext(ctx, "notification delivered",
		slog.String("event_id", n.EventID),
		slog.String("event_type", n.EventType),
	)
	return nil
}

// LogSender writes notifications to the log. It is the fallback when no
// webhook URL is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(ctx context.Context, n *Notification) error {
	s.logger.InfoContext(ctx, "notification",
		slog.String("event_id", n.EventID),
		slog.String("event_type", n.EventType),
		slog.String("subject", n.Subject),
		slog.String("message", n.Message),
	)
	return nil
}
