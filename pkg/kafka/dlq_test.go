package kafka

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDLQTopic(t *testing.T) {
	cases := []struct {
		name     string
		original string
		want     string
	}{
		{"qualified event topic", "marketplace.booking.confirmed", "marketplace.dlq.marketplace.booking.confirmed"},
		{"bare topic", "bookings", "marketplace.dlq.bookings"},
		{"hyphenated topic", "review-events", "marketplace.dlq.review-events"},
		{"underscored topic", "rating_updates", "marketplace.dlq.rating_updates"},
		{"empty topic", "", "marketplace.dlq."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DLQTopic(tc.original))
		})
	}
}

func TestDLQTopic_AlwaysCarriesPrefix(t *testing.T) {
	for _, topic := range []string{"bookings", "marketplace.review.created", "x"} {
		got := DLQTopic(topic)
		assert.True(t, strings.HasPrefix(got, DLQTopicPrefix+"."), "DLQTopic(%q) = %q", topic, got)
		assert.Greater(t, len(got), len(DLQTopicPrefix))
	}
}
