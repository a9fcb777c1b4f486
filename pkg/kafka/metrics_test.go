package kafka

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findFamily gathers the default registry and returns the named family, or
// nil when the metric has no samples yet.
func findFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	return nil
}

// sampleWithLabels returns the metric within fam whose labels match want.
func sampleWithLabels(fam *dto.MetricFamily, want map[string]string) *dto.Metric {
	if fam == nil {
		return nil
	}
	for _, m := range fam.GetMetric() {
		labels := make(map[string]string, len(m.GetLabel()))
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		matched := true
		for k, v := range want {
			if labels[k] != v {
				matched = false
				break
			}
		}
		if matched {
			return m
		}
	}
	return nil
}

func consumerLabels(topic, group string) map[string]string {
	return map[string]string{"topic": topic, "consumer_group": group}
}

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	m := sampleWithLabels(findFamily(t, name), labels)
	if m == nil || m.GetCounter() == nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func TestConsumerMetrics_Counters(t *testing.T) {
	labels := consumerLabels("bookings", "notifier-counters")

	before := counterValue(t, "kafka_consumer_messages_processed_total", labels)
	ConsumerMessagesProcessed.WithLabelValues("bookings", "notifier-counters").Inc()
	ConsumerMessagesProcessed.WithLabelValues("bookings", "notifier-counters").Inc()
	assert.InDelta(t, before+2, counterValue(t, "kafka_consumer_messages_processed_total", labels), 0.001)

	before = counterValue(t, "kafka_consumer_messages_failed_total", labels)
	ConsumerMessagesFailed.WithLabelValues("bookings", "notifier-counters").Inc()
	assert.InDelta(t, before+1, counterValue(t, "kafka_consumer_messages_failed_total", labels), 0.001)

	before = counterValue(t, "kafka_consumer_messages_received_total", labels)
	ConsumerMessagesReceived.WithLabelValues("bookings", "notifier-counters").Add(5)
	assert.InDelta(t, before+5, counterValue(t, "kafka_consumer_messages_received_total", labels), 0.001)

	before = counterValue(t, "kafka_consumer_messages_duplicate_total", labels)
	ConsumerMessagesDuplicate.WithLabelValues("bookings", "notifier-counters").Inc()
	assert.InDelta(t, before+1, counterValue(t, "kafka_consumer_messages_duplicate_total", labels), 0.001)

	before = counterValue(t, "kafka_consumer_dlq_published_total", labels)
	ConsumerDLQPublished.WithLabelValues("bookings", "notifier-counters").Inc()
	assert.InDelta(t, before+1, counterValue(t, "kafka_consumer_dlq_published_total", labels), 0.001)
}

func TestConsumerProcessingDuration_Histogram(t *testing.T) {
	ConsumerProcessingDuration.WithLabelValues("bookings", "notifier-histogram").Observe(0.123)

	m := sampleWithLabels(
		findFamily(t, "kafka_consumer_processing_duration_seconds"),
		consumerLabels("bookings", "notifier-histogram"),
	)
	require.NotNil(t, m)
	require.NotNil(t, m.GetHistogram())
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestProducerMetrics_Counters(t *testing.T) {
	labels := map[string]string{"topic": "reviews-producer-test"}

	before := counterValue(t, "kafka_producer_messages_published_total", labels)
	ProducerMessagesPublished.WithLabelValues("reviews-producer-test").Inc()
	ProducerMessagesPublished.WithLabelValues("reviews-producer-test").Inc()
	assert.InDelta(t, before+2, counterValue(t, "kafka_producer_messages_published_total", labels), 0.001)

	before = counterValue(t, "kafka_producer_publish_errors_total", labels)
	ProducerPublishErrors.WithLabelValues("reviews-producer-test").Inc()
	assert.InDelta(t, before+1, counterValue(t, "kafka_producer_publish_errors_total", labels), 0.001)

	ProducerPublishDuration.WithLabelValues("reviews-producer-test").Observe(0.05)
	m := sampleWithLabels(findFamily(t, "kafka_producer_publish_duration_seconds"), labels)
	require.NotNil(t, m)
	assert.GreaterOrEqual(t, m.GetHistogram().GetSampleCount(), uint64(1))
}

func TestKafkaMetrics_RegisteredWithHelp(t *testing.T) {
	// Counters only show up in Gather after a first touch.
	ConsumerMessagesProcessed.WithLabelValues("bookings", "notifier-help")
	ConsumerMessagesFailed.WithLabelValues("bookings", "notifier-help")
	ConsumerMessagesReceived.WithLabelValues("bookings", "notifier-help")
	ConsumerMessagesDuplicate.WithLabelValues("bookings", "notifier-help")
	ConsumerDLQPublished.WithLabelValues("bookings", "notifier-help")
	ConsumerProcessingDuration.WithLabelValues("bookings", "notifier-help")
	ProducerMessagesPublished.WithLabelValues("bookings")
	ProducerPublishErrors.WithLabelValues("bookings")
	ProducerPublishDuration.WithLabelValues("bookings")

	names := []string{
		"kafka_consumer_messages_received_total",
		"kafka_consumer_messages_processed_total",
		"kafka_consumer_messages_failed_total",
		"kafka_consumer_messages_duplicate_total",
		"kafka_consumer_processing_duration_seconds",
		"kafka_consumer_dlq_published_total",
		"kafka_producer_messages_published_total",
		"kafka_producer_publish_errors_total",
		"kafka_producer_publish_duration_seconds",
	}

	for _, name := range names {
		fam := findFamily(t, name)
		require.NotNil(t, fam, "metric %q not registered", name)
		assert.NotEmpty(t, fam.GetHelp(), "metric %q missing help text", name)
	}
}
