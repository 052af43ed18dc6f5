// Package metrics exposes Prometheus counters for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters. Register them on an injectable
// Registerer so tests can use a private registry.
type Metrics struct {
	EventsReceived        prometheus.Counter
	AttachmentsNormalized prometheus.Counter
	RawMessageFallbacks   prometheus.Counter
	UploadFailures        prometheus.Counter
}

// New creates the pipeline metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		EventsReceived: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mailhook_events_received_total",
			Help: "Number of inbound webhook events received.",
		}),
		AttachmentsNormalized: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mailhook_attachments_normalized_total",
			Help: "Number of attachment records produced by normalization.",
		}),
		RawMessageFallbacks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mailhook_raw_message_fallbacks_total",
			Help: "Number of events whose attachments came from parsing the raw message.",
		}),
		UploadFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "mailhook_upload_failures_total",
			Help: "Number of attachment content uploads that failed after retries.",
		}),
	}
}
