package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() *Notification {
	return &Notification{
		EventID:    "evt-123",
		EventType:  "marketplace.booking.created",
		Subject:    "New booking request",
		Message:    "Booking booking-001 requested for 2026-09-14 at 10:00",
		OccurredAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookSender_Send(t *testing.T) {
	var received Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, testLogger())

	err := sender.Send(context.Background(), sampleNotification())
	require.NoError(t, err)

	assert.Equal(t, "evt-123", received.EventID)
	assert.Equal(t, "New booking request", received.Subject)
}

func TestWebhookSender_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, testLogger())

	err := sender.Send(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook returned status 404")
}

func TestWebhookSender_Send_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sender := NewWebhookSender(srv.URL, testLogger())

	err := sender.Send(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookSender_Send_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	sender := NewWebhookSender(srv.URL, testLogger())

	err := sender.Send(context.Background(), sampleNotification())
	require.Error(t, err)
}

func TestLogSender_Send(t *testing.T) {
	sender := NewLogSender(testLogger())

	err := sender.Send(context.Background(), sampleNotification())
	require.NoError(t, err)
}
